package postgres

import (
	"context"
	"database/sql"

	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/postgres"
	"github.com/sourcingbee/challan/internal/types"
)

type sequenceStore struct {
	db     *postgres.DB
	seed   int64
	logger *logger.Logger
}

// NewSequenceStore returns a counter store backed by a single upsert per
// increment. Postgres serializes the ON CONFLICT update, so no retry loop
// is needed and gap-freedom holds under any number of writers.
func NewSequenceStore(db *postgres.DB, cfg *config.Configuration, logger *logger.Logger) sequence.Store {
	return &sequenceStore{db: db, seed: cfg.Sequence.Seed, logger: logger}
}

func (s *sequenceStore) BackendType() types.SequenceBackendType {
	return types.SequenceBackendPostgres
}

func (s *sequenceStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ierr.NewError("postgres is not configured").
			Mark(ierr.ErrBackendUnavailable)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Postgres is unreachable").
			Mark(ierr.ErrBackendUnavailable)
	}
	return nil
}

func (s *sequenceStore) Peek(ctx context.Context, name string) (int64, error) {
	query := `
	SELECT current_value FROM sequence_counters WHERE name = $1
	`

	var value int64
	err := s.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err == sql.ErrNoRows {
		return s.seed, nil
	}
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to read sequence counter").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return value, nil
}

func (s *sequenceStore) Next(ctx context.Context, name string) (int64, error) {
	query := `
	INSERT INTO sequence_counters (name, current_value, total_increments, last_updated)
	VALUES ($1, $2, 1, NOW())
	ON CONFLICT (name) DO UPDATE
	SET current_value = sequence_counters.current_value + 1,
		total_increments = sequence_counters.total_increments + 1,
		last_updated = NOW()
	RETURNING current_value
	`

	var value int64
	err := s.db.QueryRowContext(ctx, query, name, s.seed+1).Scan(&value)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to increment sequence counter").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return value, nil
}

func (s *sequenceStore) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	if !force {
		current, err := s.Peek(ctx, name)
		if err != nil {
			return 0, err
		}
		if value < current {
			return 0, ierr.NewError("cannot lower sequence counter").
				WithHint("Lowering a counter reissues document numbers; pass force to override").
				WithReportableDetails(map[string]any{
					"sequence":        name,
					"current_value":   current,
					"requested_value": value,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	query := `
	INSERT INTO sequence_counters (name, current_value, total_increments, last_updated)
	VALUES ($1, $2, 0, NOW())
	ON CONFLICT (name) DO UPDATE
	SET current_value = $2,
		last_updated = NOW()
	RETURNING current_value
	`

	var result int64
	err := s.db.QueryRowContext(ctx, query, name, value).Scan(&result)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to override sequence counter").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}

	s.logger.Infow("sequence counter overridden",
		"sequence", name,
		"value", result,
		"force", force,
	)
	return result, nil
}

func (s *sequenceStore) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	query := `
	SELECT name, current_value, total_increments, last_updated
	FROM sequence_counters
	ORDER BY name
	`

	var counters []*sequence.Counter
	if err := s.db.SelectContext(ctx, &counters, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list sequence counters").
			Mark(ierr.ErrBackendUnavailable)
	}
	return counters, nil
}
