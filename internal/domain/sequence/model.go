package sequence

import (
	"time"
)

// Counter is one named gap-free counter. CurrentValue is the last issued
// value, never the next one; callers that need the upcoming value without
// consuming it go through Peek.
type Counter struct {
	Name            string    `db:"name" json:"name"`
	CurrentValue    int64     `db:"current_value" json:"current_value"`
	TotalIncrements int64     `db:"total_increments" json:"total_increments"`
	LastUpdated     time.Time `db:"last_updated" json:"last_updated"`
}
