package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ReservationRequest is bound from POST /v1/reservations.
type ReservationRequest struct {
	ComponentID string  `json:"component_id" validate:"required,uuid"`
	Qty         int     `json:"qty"          validate:"required,min=1"`
	Note        *string `json:"note"`
}

// LoadRequest is bound from POST /v1/boxes/:id/load. When ItemID is empty
// the whole box is loaded.
type LoadRequest struct {
	ItemID *string `json:"item_id" validate:"omitempty,uuid"`
}

// AssociateRequest is bound from POST /v1/associate.
type AssociateRequest struct {
	ComponentCode string `json:"component_code" validate:"required"`
	ParentCode    string `json:"parent_code"    validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockItemResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	ComponentID string `json:"component_id"`
	Name        string `json:"name,omitempty"`
	Status      string `json:"status"`
	ParentCode  string `json:"parent_code,omitempty"`
}

type BoxResponse struct {
	ID      string              `json:"id"`
	Code    string              `json:"code"`
	BoxType string              `json:"box_type"`
	Status  string              `json:"status"`
	Items   []StockItemResponse `json:"items"`
}

type ReservationResponse struct {
	ID          string        `json:"id"`
	ComponentID string        `json:"component_id"`
	Qty         int           `json:"qty"`
	Status      string        `json:"status"`
	Boxes       []BoxResponse `json:"boxes"`
}

type LoadResponse struct {
	BoxID     string `json:"box_id"`
	BoxStatus string `json:"box_status"`
	Loaded    int    `json:"loaded"`
}
