// Package transport defines the request and response shapes of the
// valuation API.
package transport

import "time"

// ValuationRequest is the body of POST /valuation/v1/price-m2.
// PostalCode is optional when the address carries one.
type ValuationRequest struct {
	LeadID     string   `json:"lead_id" validate:"required"`
	Address    string   `json:"address"`
	Area       *float64 `json:"area" validate:"omitempty,gt=0"`
	PostalCode string   `json:"postal_code" validate:"omitempty,len=5,numeric"`
}

// ValuationResponse is the outcome of one valuation. Price fields are null
// when no usable price was determined.
type ValuationResponse struct {
	LeadID         string         `json:"lead_id"`
	PriceM2        *float64       `json:"price_m2"`
	ValuationPrice *float64       `json:"valuation_price"`
	Source         string         `json:"source"`
	Confidence     int            `json:"confidence"`
	ValuationAt    time.Time      `json:"valuation_at"`
	Detail         map[string]any `json:"detail,omitempty"`
}
