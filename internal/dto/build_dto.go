package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// BuildRequest is bound from POST /v1/builds.
type BuildRequest struct {
	ComponentID string `json:"component_id" validate:"required,uuid"`
	Qty         int    `json:"qty"          validate:"required,min=1"`
	// BoxID ties the build to its originating production box; association
	// completeness is only enforced for container builds.
	BoxID *string `json:"box_id" validate:"omitempty,uuid"`
	// ProvidedDocuments lists document categories the caller supplies
	// alongside the build, satisfying REQUIRED categories not yet uploaded.
	ProvidedDocuments []string `json:"provided_documents"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// Build attempt outcomes.
const (
	BuildCompleted = "COMPLETED"
	BuildRejected  = "REJECTED"
)

type BuildLineResponse struct {
	ComponentID string          `json:"component_id"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type BuildResponse struct {
	ID           string              `json:"id,omitempty"`
	Status       string              `json:"status"`
	Reason       string              `json:"reason,omitempty"`
	ComponentID  string              `json:"component_id"`
	Qty          int                 `json:"qty"`
	AssemblyCode string              `json:"assembly_code,omitempty"`
	Lines        []BuildLineResponse `json:"lines,omitempty"`
	CreatedAt    string              `json:"created_at,omitempty"`
}
