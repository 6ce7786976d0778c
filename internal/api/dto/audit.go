package dto

import (
	"time"

	"github.com/sourcingbee/challan/internal/domain/audit"
)

// AuditRecordResponse is one immutable audit entry
type AuditRecordResponse struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	VehicleID      string    `json:"vehicle_id"`
	DocumentNumber string    `json:"document_number"`
	ParentSerial   string    `json:"parent_serial"`
	PartIndex      int       `json:"part_index"`
	PartCount      int       `json:"part_count"`
	TripIDs        []string  `json:"trip_ids"`
	SequenceName   string    `json:"sequence_name"`
	SequenceValue  int64     `json:"sequence_value"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToAuditRecordResponse(r *audit.Record) *AuditRecordResponse {
	return &AuditRecordResponse{
		ID:             r.ID,
		RunID:          r.RunID,
		VehicleID:      r.VehicleID,
		DocumentNumber: r.DocumentNumber,
		ParentSerial:   r.ParentSerial,
		PartIndex:      r.PartIndex,
		PartCount:      r.PartCount,
		TripIDs:        r.TripIDs,
		SequenceName:   r.SequenceName,
		SequenceValue:  r.SequenceValue,
		CreatedAt:      r.CreatedAt,
	}
}

// ListAuditRecordsResponse lists audit records for one vehicle or run
type ListAuditRecordsResponse struct {
	Items []*AuditRecordResponse `json:"items"`
	Total int                    `json:"total"`
}

// AuditSummaryResponse is the end-of-run compliance report
type AuditSummaryResponse struct {
	TotalRecords    int            `json:"total_records"`
	TotalVehicles   int            `json:"total_vehicles"`
	TotalIncrements int            `json:"total_increments"`
	BySequence      map[string]int `json:"by_sequence"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
