package repository

import (
	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/audit"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	"github.com/sourcingbee/challan/internal/dynamodb"
	"github.com/sourcingbee/challan/internal/httpclient"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/postgres"
	dynamoRepo "github.com/sourcingbee/challan/internal/repository/dynamo"
	fileRepo "github.com/sourcingbee/challan/internal/repository/file"
	postgresRepo "github.com/sourcingbee/challan/internal/repository/postgres"
	supabaseRepo "github.com/sourcingbee/challan/internal/repository/supabase"
	"github.com/sourcingbee/challan/internal/types"
)

// NewSequenceChain assembles the counter backend chain in configured order.
// Backends whose infrastructure is absent (nil DB, nil client) are skipped
// at assembly; the chain's health checks handle the rest at startup.
func NewSequenceChain(
	cfg *config.Configuration,
	db *postgres.DB,
	dynamoClient *dynamodb.Client,
	httpClient httpclient.Client,
	logger *logger.Logger,
) *SequenceChain {
	var backends []sequence.Store

	for _, backendType := range cfg.Sequence.Backends {
		switch backendType {
		case types.SequenceBackendSupabase:
			if cfg.Supabase.BaseURL != "" {
				backends = append(backends, supabaseRepo.NewSequenceStore(httpClient, cfg, logger))
			}
		case types.SequenceBackendDynamoDB:
			if dynamoClient != nil {
				backends = append(backends, dynamoRepo.NewSequenceStore(dynamoClient, cfg, logger))
			}
		case types.SequenceBackendPostgres:
			if db != nil {
				backends = append(backends, postgresRepo.NewSequenceStore(db, cfg, logger))
			}
		case types.SequenceBackendFile:
			backends = append(backends, fileRepo.NewSequenceStore(cfg, logger))
		default:
			logger.Warnw("unknown sequence backend in config, skipping",
				"backend", backendType,
			)
		}
	}

	return NewChain(backends, logger)
}

// NewAuditRepository prefers Postgres and falls back to process memory for
// local runs without a database.
func NewAuditRepository(db *postgres.DB, logger *logger.Logger) audit.Repository {
	if db == nil {
		logger.Warnw("postgres not configured, audit records will not survive restarts")
		return NewInMemoryAuditRepository()
	}
	return postgresRepo.NewAuditRepository(db, logger)
}
