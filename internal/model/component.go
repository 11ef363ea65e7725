package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Component is a node in the hierarchical structure tree. Multiple rows may
// represent the same physical part — either via a shared MasterID or, for
// legacy rows, via an identical name. Reconciliation of their quantities is
// the Stock Ledger's job; nothing else may write QuantityInStock.
type Component struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Description *string
	// Revision 0 means unrevised; 1..26 map to Rev.A..Rev.Z.
	Revision int        `gorm:"not null;default:0"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
	MasterID *uuid.UUID `gorm:"type:uuid;index"`

	// Typology flags mirror the structure-type taxonomy.
	IsAssembly   bool `gorm:"not null;default:false"`
	IsPart       bool `gorm:"not null;default:false"`
	IsCommercial bool `gorm:"not null;default:false"`
	Sellable     bool `gorm:"not null;default:false"`

	QuantityInStock decimal.Decimal  `gorm:"type:decimal(14,3);not null;default:0"`
	StockThreshold  *decimal.Decimal `gorm:"type:decimal(14,3)"`
	ReplenishQty    *decimal.Decimal `gorm:"type:decimal(14,3)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Parent *Component       `gorm:"foreignKey:ParentID"`
	Master *ComponentMaster `gorm:"foreignKey:MasterID"`
}

// RevisionLabel returns the human readable revision, e.g. "Rev.B".
// Zero or negative revisions yield an empty string; indexes past 26 clamp to Z.
func (c *Component) RevisionLabel() string {
	if c.Revision <= 0 {
		return ""
	}
	idx := c.Revision
	if idx > 26 {
		idx = 26
	}
	return fmt.Sprintf("Rev.%c", rune('A'+idx-1))
}

// DisplayName is the name suffixed with the revision letter when revised.
func (c *Component) DisplayName() string {
	label := c.RevisionLabel()
	if label == "" {
		return c.Name
	}
	return c.Name + "_" + label
}

// TypeLabel maps the typology flags to the code segment used in instance
// codes (T=...). Assemblies win over part/commercial when multiple flags are
// set on dirty legacy rows.
func (c *Component) TypeLabel() string {
	switch {
	case c.IsAssembly:
		return TypeAssembly
	case c.IsCommercial:
		return TypeCommercial
	default:
		return TypePart
	}
}

// NormalizedName is the case-folded trimmed name used as the identity
// fallback when no master reference exists.
func (c *Component) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}
