package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/sourcingbee/challan/internal/api"
	v1 "github.com/sourcingbee/challan/internal/api/v1"
	"github.com/sourcingbee/challan/internal/cache"
	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/dynamodb"
	"github.com/sourcingbee/challan/internal/httpclient"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/migration"
	"github.com/sourcingbee/challan/internal/postgres"
	"github.com/sourcingbee/challan/internal/repository"
	"github.com/sourcingbee/challan/internal/sentry"
	"github.com/sourcingbee/challan/internal/service"
	"github.com/sourcingbee/challan/internal/validator"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres (optional)
			providePostgres,

			// DynamoDB (optional)
			dynamodb.NewClient,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewSequenceChain,
			repository.NewAuditRepository,
		),

		// Monitoring
		sentry.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewSequenceService,
			service.NewConsolidationService,
			service.NewAuditService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			runMigrations,
			initSequenceChain,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// providePostgres connects only when a database is configured; the counter
// chain and audit repository both degrade gracefully without one.
func providePostgres(cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	if cfg.Postgres.Host == "" {
		log.Info("postgres not configured, skipping")
		return nil, nil
	}
	return postgres.NewDB(cfg, log)
}

func provideHandlers(
	logger *logger.Logger,
	sequenceService service.SequenceService,
	consolidationService service.ConsolidationService,
	auditService service.AuditService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(sequenceService, logger),
		Generation: v1.NewGenerationHandler(consolidationService, sequenceService, logger),
		Sequence:   v1.NewSequenceHandler(sequenceService, logger),
		Audit:      v1.NewAuditHandler(auditService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

// runMigrations brings the postgres schema up to date on startup. It is a
// no-op when the deployment runs without a database.
func runMigrations(db *postgres.DB, log *logger.Logger) error {
	if db == nil {
		return nil
	}
	if err := migration.Run(db); err != nil {
		return err
	}
	log.Info("postgres schema up to date")
	return nil
}

// initSequenceChain commits the chain to its first healthy backend before
// the server starts accepting requests.
func initSequenceChain(lc fx.Lifecycle, chain *repository.SequenceChain, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return chain.Init(ctx)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
