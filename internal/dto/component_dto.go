package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// StockIntakeRequest is bound from POST /v1/components/:id/stock. Positive
// quantities only — consumption happens through builds.
type StockIntakeRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Note     *string         `json:"note"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// AvailabilityResponse is the cached answer of
// GET /v1/components/:id/availability.
type AvailabilityResponse struct {
	ComponentID string `json:"component_id"`
	Buildable   int64  `json:"buildable"`
	Reserved    int64  `json:"reserved"`
	Available   int64  `json:"available"`
}

type StockResponse struct {
	ComponentID string          `json:"component_id"`
	Name        string          `json:"name"`
	OnHand      decimal.Decimal `json:"on_hand"`
}

// AlertResponse describes a component below its resolved stock threshold.
type AlertResponse struct {
	ComponentID  string          `json:"component_id"`
	Name         string          `json:"name"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Threshold    decimal.Decimal `json:"threshold"`
	ReplenishQty decimal.Decimal `json:"replenish_qty"`
}

// CodeResolution is the answer of GET /v1/codes/*code: everything reachable
// from one instance code.
type CodeResolution struct {
	Code          string             `json:"code"`
	Item          StockItemResponse  `json:"item"`
	ComponentName string             `json:"component_name"`
	Box           *BoxResponse       `json:"box,omitempty"`
	ReservationID string             `json:"reservation_id,omitempty"`
	Events        []AuditEventRecord `json:"events"`
}

// AuditEventRecord is one archive timeline entry.
type AuditEventRecord struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Action    string `json:"action"`
	Meta      string `json:"meta,omitempty"`
	CreatedAt string `json:"created_at"`
}
