package audit

import (
	"time"

	"github.com/lib/pq"
)

// Record is one immutable audit entry mapping a generated document bundle
// back to its source trips and the counter increment that numbered it.
type Record struct {
	ID             string         `db:"id" json:"id"`
	RunID          string         `db:"run_id" json:"run_id"`
	VehicleID      string         `db:"vehicle_id" json:"vehicle_id"`
	DocumentNumber string         `db:"document_number" json:"document_number"`
	ParentSerial   string         `db:"parent_serial" json:"parent_serial"`
	PartIndex      int            `db:"part_index" json:"part_index"`
	PartCount      int            `db:"part_count" json:"part_count"`
	TripIDs        pq.StringArray `db:"trip_ids" json:"trip_ids"`
	SequenceName   string         `db:"sequence_name" json:"sequence_name"`
	SequenceValue  int64          `db:"sequence_value" json:"sequence_value"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Summary aggregates an audit trail for end-of-run reporting.
type Summary struct {
	TotalRecords    int            `json:"total_records"`
	TotalVehicles   int            `json:"total_vehicles"`
	TotalIncrements int            `json:"total_increments"`
	BySequence      map[string]int `json:"by_sequence"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
