package testutil

import (
	"github.com/sourcingbee/challan/internal/cache"
	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/logger"
)

// GetLogger returns a logger suitable for tests.
func GetLogger() *logger.Logger {
	return logger.GetLogger()
}

// GetConfig returns the default local configuration used across tests.
func GetConfig() *config.Configuration {
	return config.GetDefaultConfig()
}

// GetCache returns the shared in-memory cache. Tests flush it in setup.
func GetCache() cache.Cache {
	return cache.NewInMemoryCache()
}
