package shipment

import (
	"github.com/shopspring/decimal"
)

// LineItem is one product line belonging to one source trip, as received
// from the manifest intake. HubID carries the raw destination identifier
// ("HYD_NCH" or a bare hub code); resolution to a hub code happens per
// record during consolidation, never at startup.
type LineItem struct {
	TripID       string          `json:"trip_id" validate:"required"`
	SellerID     string          `json:"seller_id" validate:"required"`
	HubID        string          `json:"hub_id" validate:"required"`
	Description  string          `json:"description"`
	HSNCode      string          `json:"hsn_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	TaxRateClass string          `json:"tax_rate_class"`
}
