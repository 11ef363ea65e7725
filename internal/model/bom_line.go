package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMLine is one edge of a composite definition: building one unit of the
// parent consumes Quantity units of the child. A child may itself be a
// composite, so the definition is recursive.
type BOMLine struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ParentID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_bom_parent_child;not null"`
	ChildID  uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_bom_parent_child;not null"`
	Quantity decimal.Decimal `gorm:"type:decimal(14,3);not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Parent *Component `gorm:"foreignKey:ParentID"`
	Child  *Component `gorm:"foreignKey:ChildID"`
}
