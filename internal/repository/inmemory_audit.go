package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sourcingbee/challan/internal/domain/audit"
)

// InMemoryAuditRepository keeps audit records in process memory. Used in
// local mode when no Postgres is configured; records do not survive a
// restart, which matches the local-file counter backend's scope.
type InMemoryAuditRepository struct {
	mu      sync.RWMutex
	records []*audit.Record
}

func NewInMemoryAuditRepository() *InMemoryAuditRepository {
	return &InMemoryAuditRepository{}
}

func (r *InMemoryAuditRepository) Record(ctx context.Context, record *audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

// RecordMany appends all records under one lock, so readers never observe a
// partially written batch.
func (r *InMemoryAuditRepository) RecordMany(ctx context.Context, records []*audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		copied := *record
		r.records = append(r.records, &copied)
	}
	return nil
}

func (r *InMemoryAuditRepository) QueryByVehicle(ctx context.Context, vehicleID string) ([]*audit.Record, error) {
	return r.query(func(record *audit.Record) bool {
		return record.VehicleID == vehicleID
	}), nil
}

func (r *InMemoryAuditRepository) QueryByRun(ctx context.Context, runID string) ([]*audit.Record, error) {
	return r.query(func(record *audit.Record) bool {
		return record.RunID == runID
	}), nil
}

func (r *InMemoryAuditRepository) query(match func(*audit.Record) bool) []*audit.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*audit.Record
	for _, record := range r.records {
		if match(record) {
			copied := *record
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].DocumentNumber < out[j].DocumentNumber
	})
	return out
}

func (r *InMemoryAuditRepository) ExportSummary(ctx context.Context) (*audit.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &audit.Summary{
		BySequence:  make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	vehicles := make(map[string]struct{})
	type increment struct {
		name  string
		value int64
	}
	increments := make(map[increment]struct{})

	for _, record := range r.records {
		summary.TotalRecords++
		summary.BySequence[record.SequenceName]++
		vehicles[record.VehicleID] = struct{}{}
		increments[increment{record.SequenceName, record.SequenceValue}] = struct{}{}
	}
	summary.TotalVehicles = len(vehicles)
	summary.TotalIncrements = len(increments)

	return summary, nil
}
