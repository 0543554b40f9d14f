package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ClientBreakdown is the whole-order price breakdown from the client's
// perspective. All amounts are VND.
type ClientBreakdown struct {
	TotalPrice   int64 `json:"total_price"`
	TransportFee int64 `json:"transport_fee"`
	ServiceFee   int64 `json:"service_fee"`
	Promotion    int64 `json:"promotion"`
	VATFee       int64 `json:"vat_fee"`
	PITOFee      int64 `json:"pito_fee"`
	TotalWithVAT int64 `json:"total_with_vat"`
}

// PartnerBreakdown is one restaurant's slice of one sub-order (or of the
// whole order when not scoped to a date).
type PartnerBreakdown struct {
	TotalPrice      int64   `json:"total_price"`
	ServiceFee      float64 `json:"service_fee"`
	ServiceFeePrice int64   `json:"service_fee_price"`
	Promotion       int64   `json:"promotion"`
	VATFee          int64   `json:"vat_fee"`
	TotalWithVAT    int64   `json:"total_with_vat"`
}

// Quotation is a persisted snapshot of the computed price breakdowns. It is
// derived, never authoritative: current totals always come from recomputing
// against the live sub-orders.
type Quotation struct {
	BaseModel
	OrderID uuid.UUID                                                 `gorm:"type:uuid;index" json:"order_id"`
	Client  datatypes.JSONType[ClientBreakdown]                       `json:"client"`
	Partner datatypes.JSONType[map[string]map[int64]PartnerBreakdown] `json:"partner"`
}
