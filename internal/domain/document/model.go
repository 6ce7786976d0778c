package document

import (
	"github.com/shopspring/decimal"
	"github.com/sourcingbee/challan/internal/domain/shipment"
	"github.com/sourcingbee/challan/internal/types"
)

// GroupKey identifies a consolidation group. Destination hub and selling
// entity are the only grouping dimensions; source trips never split a group.
type GroupKey struct {
	HubID    string `json:"hub_id"`
	SellerID string `json:"seller_id"`
}

// Group holds every line item for one (hub, seller) combination across a
// vehicle's trips, in intake order.
type Group struct {
	Key       GroupKey            `json:"key"`
	LineItems []shipment.LineItem `json:"line_items"`
	TripIDs   []string            `json:"trip_ids"`
}

// Bundle is one finalized document: a numbered slice of a Group small
// enough to render. A split group produces several bundles sharing a parent
// serial; only the head bundle's number equals the parent serial.
type Bundle struct {
	ID             string              `json:"id"`
	DocumentNumber string              `json:"document_number"`
	ParentSerial   string              `json:"parent_serial"`
	PartIndex      int                 `json:"part_index"`
	PartCount      int                 `json:"part_count"`
	LineItems      []shipment.LineItem `json:"line_items"`
	HubID          string              `json:"hub_id"`
	SellerID       string              `json:"seller_id"`
	CompanyCode    string              `json:"company_code"`
	FacilityCode   string              `json:"facility_code"`
	HubCode        string              `json:"hub_code"`
	SequenceName   string              `json:"sequence_name"`
	SequenceValue  int64               `json:"sequence_value"`
	TotalQuantity  decimal.Decimal     `json:"total_quantity"`
	TotalValue     decimal.Decimal     `json:"total_value"`
	OverFieldLimit bool                `json:"over_field_limit"`
}

// SkippedGroup reports a (hub, seller) combination that produced no bundle.
// Skips are results, not errors; a skipped group never aborts a run.
type SkippedGroup struct {
	Key       GroupKey         `json:"key"`
	Reason    types.SkipReason `json:"reason"`
	Detail    string           `json:"detail"`
	ItemCount int              `json:"item_count"`
	TripIDs   []string         `json:"trip_ids"`
}
