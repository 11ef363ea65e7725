package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Domain errors surfaced by the core services. Handlers map these to HTTP
// envelopes; the services never format user-facing messages beyond Error().
// All precondition errors are returned before any write, so a rejected
// operation leaves quantities and links untouched.

// NotFoundError reports a missing composite, component, stock instance or
// container.
type NotFoundError struct {
	Kind string // "component", "stock item", "box", "build", "reservation"
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Ref)
}

// Shortfall details one child failing the stock sufficiency check.
type Shortfall struct {
	ComponentID string          `json:"component_id"`
	Name        string          `json:"name"`
	Required    decimal.Decimal `json:"required"`
	OnHand      decimal.Decimal `json:"on_hand"`
}

// InsufficientStockError carries the per-child shortfall detail for a
// rejected build.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, fmt.Sprintf("%s (need %s, have %s)", s.Name, s.Required, s.OnHand))
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

// MissingDocumentError lists the mandatory document categories that have no
// provided file.
type MissingDocumentError struct {
	Owner      string
	Categories []string
}

func (e *MissingDocumentError) Error() string {
	return fmt.Sprintf("missing required documents for %s: %s", e.Owner, strings.Join(e.Categories, ", "))
}

// AssociationShortfall details one child with fewer associated instances
// than required.
type AssociationShortfall struct {
	ComponentID string `json:"component_id"`
	Name        string `json:"name"`
	Required    int64  `json:"required"`
	Associated  int64  `json:"associated"`
}

// AssociationIncompleteError reports children whose associated instance
// count is below the required quantity.
type AssociationIncompleteError struct {
	Shortfalls []AssociationShortfall
}

func (e *AssociationIncompleteError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, fmt.Sprintf("%s (%d/%d associated)", s.Name, s.Associated, s.Required))
	}
	return "association incomplete: " + strings.Join(names, ", ")
}

// AlreadyConsumedError reports an association attempt on an instance that
// already carries a parent link.
type AlreadyConsumedError struct {
	Code       string
	ParentCode string
}

func (e *AlreadyConsumedError) Error() string {
	return fmt.Sprintf("stock instance %q is already consumed into %q", e.Code, e.ParentCode)
}
