package service

import (
	"github.com/sourcingbee/challan/internal/cache"
	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/audit"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/repository"
	"github.com/sourcingbee/challan/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache
	Sentry *sentry.Service

	// Sequence backend chain
	Sequences *repository.SequenceChain

	// Repositories
	AuditRepo audit.Repository
}

// NewServiceParams assembles the shared dependency bundle
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	cache cache.Cache,
	sentryService *sentry.Service,
	sequences *repository.SequenceChain,
	auditRepo audit.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:    logger,
		Config:    config,
		Cache:     cache,
		Sentry:    sentryService,
		Sequences: sequences,
		AuditRepo: auditRepo,
	}
}
