package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sourcingbee/challan/internal/domain/document"
	"github.com/sourcingbee/challan/internal/domain/shipment"
	"github.com/sourcingbee/challan/internal/service"
	"github.com/sourcingbee/challan/internal/validator"
)

// LineItemRequest is one shipment row of the intake manifest
type LineItemRequest struct {
	TripID       string          `json:"trip_id" binding:"required" example:"TRIP-4821"`
	SellerID     string          `json:"seller_id" binding:"required" example:"AMOLAKCHAND"`
	HubID        string          `json:"hub_id" binding:"required" example:"HYD_NCH"`
	Description  string          `json:"description" example:"Steel rods 12mm"`
	HSNCode      string          `json:"hsn_code" example:"7214"`
	Quantity     decimal.Decimal `json:"quantity"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	TaxRateClass string          `json:"tax_rate_class" example:"18"`
}

// GenerateRunRequest represents the request payload for a generation run
type GenerateRunRequest struct {
	VehicleID  string            `json:"vehicle_id" binding:"required" validate:"required" example:"KA01AB1234"`
	FacilityID string            `json:"facility_id" binding:"required" validate:"required" example:"hyderabad"`
	LineItems  []LineItemRequest `json:"line_items" binding:"required" validate:"required,min=1,dive"`
}

func (r *GenerateRunRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *GenerateRunRequest) ToLineItems() []shipment.LineItem {
	items := make([]shipment.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		items = append(items, shipment.LineItem{
			TripID:       li.TripID,
			SellerID:     li.SellerID,
			HubID:        li.HubID,
			Description:  li.Description,
			HSNCode:      li.HSNCode,
			Quantity:     li.Quantity,
			TaxableValue: li.TaxableValue,
			TaxRateClass: li.TaxRateClass,
		})
	}
	return items
}

// BundleResponse is one finalized document bundle
type BundleResponse struct {
	ID             string          `json:"id"`
	DocumentNumber string          `json:"document_number"`
	ParentSerial   string          `json:"parent_serial"`
	PartIndex      int             `json:"part_index"`
	PartCount      int             `json:"part_count"`
	HubID          string          `json:"hub_id"`
	SellerID       string          `json:"seller_id"`
	CompanyCode    string          `json:"company_code"`
	FacilityCode   string          `json:"facility_code"`
	HubCode        string          `json:"hub_code"`
	ItemCount      int             `json:"item_count"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalValue     decimal.Decimal `json:"total_value"`
	OverFieldLimit bool            `json:"over_field_limit"`
}

// SkippedGroupResponse explains one group that produced no bundle
type SkippedGroupResponse struct {
	HubID     string `json:"hub_id"`
	SellerID  string `json:"seller_id"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail"`
	ItemCount int    `json:"item_count"`
}

// GroupFailureResponse is one group that could not be numbered
type GroupFailureResponse struct {
	HubID    string `json:"hub_id"`
	SellerID string `json:"seller_id"`
	Error    string `json:"error"`
}

// GenerateRunResponse represents a completed generation run
type GenerateRunResponse struct {
	RunID     string                 `json:"run_id"`
	VehicleID string                 `json:"vehicle_id"`
	Bundles   []BundleResponse       `json:"bundles"`
	Skipped   []SkippedGroupResponse `json:"skipped"`
	Failures  []GroupFailureResponse `json:"failures"`
	StartedAt time.Time              `json:"started_at"`
}

func ToBundleResponse(b *document.Bundle) BundleResponse {
	return BundleResponse{
		ID: b.ID,
		// Renderers treat an absent number as "no document", never as an
		// error, so the field is always a string and never null.
		DocumentNumber: b.DocumentNumber,
		ParentSerial:   b.ParentSerial,
		PartIndex:      b.PartIndex,
		PartCount:      b.PartCount,
		HubID:          b.HubID,
		SellerID:       b.SellerID,
		CompanyCode:    b.CompanyCode,
		FacilityCode:   b.FacilityCode,
		HubCode:        b.HubCode,
		ItemCount:      len(b.LineItems),
		TotalQuantity:  b.TotalQuantity,
		TotalValue:     b.TotalValue,
		OverFieldLimit: b.OverFieldLimit,
	}
}

func ToGenerateRunResponse(result *service.RunResult) *GenerateRunResponse {
	resp := &GenerateRunResponse{
		RunID:     result.RunID,
		VehicleID: result.VehicleID,
		Bundles:   make([]BundleResponse, 0, len(result.Bundles)),
		Skipped:   make([]SkippedGroupResponse, 0, len(result.Skipped)),
		Failures:  make([]GroupFailureResponse, 0, len(result.Failures)),
		StartedAt: result.StartedAt,
	}
	for _, b := range result.Bundles {
		resp.Bundles = append(resp.Bundles, ToBundleResponse(b))
	}
	for _, sk := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedGroupResponse{
			HubID:     sk.Key.HubID,
			SellerID:  sk.Key.SellerID,
			Reason:    string(sk.Reason),
			Detail:    sk.Detail,
			ItemCount: sk.ItemCount,
		})
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, GroupFailureResponse{
			HubID:    f.Key.HubID,
			SellerID: f.Key.SellerID,
			Error:    f.Error,
		})
	}
	return resp
}
