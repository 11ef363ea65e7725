package dto

import "github.com/shopspring/decimal"

// Consumption node sources. Trace nodes come from explicit parent links,
// container nodes from the same-box heuristic, line nodes from recorded
// build lines and bom nodes from the static definition.
const (
	SourceTrace     = "trace"
	SourceContainer = "container"
	SourceLines     = "lines"
	SourceBOM       = "bom"
)

// DocumentRef points at a file assigned to exactly one event in a history.
type DocumentRef struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

// ConsumptionNode is one consumed unit (or fallback aggregate) in a build's
// history tree. Identity fields are point-in-time snapshots taken from the
// audit log when available, never from the live master data.
type ConsumptionNode struct {
	Code          string            `json:"code,omitempty"`
	ComponentID   string            `json:"component_id,omitempty"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	RevisionLabel string            `json:"revision_label,omitempty"`
	Quantity      decimal.Decimal   `json:"quantity"`
	Status        string            `json:"status,omitempty"`
	Source        string            `json:"source"`
	Documents     []DocumentRef     `json:"documents,omitempty"`
	Children      []ConsumptionNode `json:"children,omitempty"`
}

// ConsumptionTree is the full reconstructed history of one build record.
type ConsumptionTree struct {
	BuildID      string            `json:"build_id"`
	ComponentID  string            `json:"component_id"`
	Name         string            `json:"name"`
	Qty          int               `json:"qty"`
	AssemblyCode string            `json:"assembly_code,omitempty"`
	OperatorName string            `json:"operator_name,omitempty"`
	BoxCode      string            `json:"box_code,omitempty"`
	CreatedAt    string            `json:"created_at"`
	Children     []ConsumptionNode `json:"children"`
}
