package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sourcingbee/challan/internal/domain/audit"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/postgres"
)

type auditRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAuditRepository(db *postgres.DB, logger *logger.Logger) audit.Repository {
	return &auditRepository{db: db, logger: logger}
}

func (r *auditRepository) Record(ctx context.Context, record *audit.Record) error {
	query := `
	INSERT INTO audit_records (
		id, run_id, vehicle_id, document_number, parent_serial,
		part_index, part_count, trip_ids, sequence_name, sequence_value, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		record.ID,
		record.RunID,
		record.VehicleID,
		record.DocumentNumber,
		record.ParentSerial,
		record.PartIndex,
		record.PartCount,
		pq.Array(record.TripIDs),
		record.SequenceName,
		record.SequenceValue,
		record.CreatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write audit record").
			WithReportableDetails(map[string]any{
				"document_number": record.DocumentNumber,
				"vehicle_id":      record.VehicleID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// RecordMany writes the records inside one transaction. Record picks the
// transaction up from the context, so a failure on any part rolls back the
// whole batch.
func (r *auditRepository) RecordMany(ctx context.Context, records []*audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		for _, record := range records {
			if err := r.Record(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *auditRepository) QueryByVehicle(ctx context.Context, vehicleID string) ([]*audit.Record, error) {
	query := `
	SELECT id, run_id, vehicle_id, document_number, parent_serial,
		part_index, part_count, trip_ids, sequence_name, sequence_value, created_at
	FROM audit_records
	WHERE vehicle_id = $1
	ORDER BY created_at, document_number
	`

	var records []*audit.Record
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &records, query, vehicleID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query audit records").
			WithReportableDetails(map[string]any{"vehicle_id": vehicleID}).
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}

func (r *auditRepository) QueryByRun(ctx context.Context, runID string) ([]*audit.Record, error) {
	query := `
	SELECT id, run_id, vehicle_id, document_number, parent_serial,
		part_index, part_count, trip_ids, sequence_name, sequence_value, created_at
	FROM audit_records
	WHERE run_id = $1
	ORDER BY created_at, document_number
	`

	var records []*audit.Record
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &records, query, runID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to query audit records").
			WithReportableDetails(map[string]any{"run_id": runID}).
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}

func (r *auditRepository) ExportSummary(ctx context.Context) (*audit.Summary, error) {
	query := `
	SELECT sequence_name, COUNT(*) AS records, COUNT(DISTINCT vehicle_id) AS vehicles
	FROM audit_records
	GROUP BY sequence_name
	`

	rows, err := r.db.GetQuerier(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build audit summary").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	summary := &audit.Summary{
		BySequence:  make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	for rows.Next() {
		var name string
		var records, vehicleCount int
		if err := rows.Scan(&name, &records, &vehicleCount); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to build audit summary").
				Mark(ierr.ErrDatabase)
		}
		summary.BySequence[name] = records
		summary.TotalRecords += records
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build audit summary").
			Mark(ierr.ErrDatabase)
	}

	// Split parts share one increment, so increments are distinct
	// (sequence, value) pairs, not record counts.
	totals := `
	SELECT COUNT(DISTINCT vehicle_id),
		COUNT(DISTINCT (sequence_name, sequence_value))
	FROM audit_records
	`
	if err := r.db.GetQuerier(ctx).QueryRowContext(ctx, totals).Scan(&summary.TotalVehicles, &summary.TotalIncrements); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build audit summary").
			Mark(ierr.ErrDatabase)
	}

	return summary, nil
}
