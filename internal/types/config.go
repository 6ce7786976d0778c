package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server with local-only backends
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running the API server against remote backends
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
