package audit

import (
	"context"
)

// Repository persists audit records. Records are append-only; nothing ever
// updates or deletes one.
type Repository interface {
	Record(ctx context.Context, record *Record) error
	// RecordMany writes all records or none of them where the backend can
	// make that atomic. The parts of a split group go through here so a
	// partial write cannot leave one issued number half-audited.
	RecordMany(ctx context.Context, records []*Record) error
	QueryByVehicle(ctx context.Context, vehicleID string) ([]*Record, error)
	QueryByRun(ctx context.Context, runID string) ([]*Record, error)
	ExportSummary(ctx context.Context) (*Summary, error)
}
