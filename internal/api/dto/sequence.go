package dto

import (
	"time"

	"github.com/sourcingbee/challan/internal/domain/sequence"
	"github.com/sourcingbee/challan/internal/validator"
)

// SequenceResponse is one counter's current state
type SequenceResponse struct {
	Name            string    `json:"name" example:"akdchydnch_seq"`
	CurrentValue    int64     `json:"current_value" example:"301"`
	TotalIncrements int64     `json:"total_increments"`
	LastUpdated     time.Time `json:"last_updated"`
}

func ToSequenceResponse(c *sequence.Counter) *SequenceResponse {
	return &SequenceResponse{
		Name:            c.Name,
		CurrentValue:    c.CurrentValue,
		TotalIncrements: c.TotalIncrements,
		LastUpdated:     c.LastUpdated,
	}
}

// ListSequencesResponse lists every known counter
type ListSequencesResponse struct {
	Items   []*SequenceResponse `json:"items"`
	Total   int                 `json:"total"`
	Backend string              `json:"backend"`
}

// SetSequenceRequest overrides a counter value. Lowering a counter requires
// force since it would reissue document numbers.
type SetSequenceRequest struct {
	Value int64 `json:"value" binding:"required" validate:"gte=0"`
	Force bool  `json:"force"`
}

func (r *SetSequenceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SetSequenceResponse reports the resulting counter value
type SetSequenceResponse struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}
