package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentMaster is the canonical record for a component code. Structure
// nodes referencing the same master are duplicates of one physical part,
// whatever their own descriptive fields say.
type ComponentMaster struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Description *string

	// Inventory defaults used when the node does not define its own.
	StockThreshold *decimal.Decimal `gorm:"type:decimal(14,3)"`
	ReplenishQty   *decimal.Decimal `gorm:"type:decimal(14,3)"`

	// LotManaged makes all stock instances of one production box share a
	// single instance code.
	LotManaged bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
