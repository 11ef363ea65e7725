package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildRecord represents one execution of "construct N units of composite X".
// Consumed children are traced primarily through stock-item parent links; the
// BuildLine rows are the recorded fallback used when no runtime trace exists.
type BuildRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Qty         int       `gorm:"not null;default:1"`

	OperatorID      *uuid.UUID `gorm:"type:uuid"`
	ProductionBoxID *uuid.UUID `gorm:"type:uuid;index"`
	// AssemblyCode is the instance code of the unit built, when the build
	// originated from a production box. Child parent links point at it.
	AssemblyCode *string `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Component     *Component     `gorm:"foreignKey:ComponentID"`
	Operator      *Operator      `gorm:"foreignKey:OperatorID"`
	ProductionBox *ProductionBox `gorm:"foreignKey:ProductionBoxID"`
	Lines         []BuildLine    `gorm:"foreignKey:BuildID"`
}

// BuildLine names one consumed child and the quantity required per unit of
// the parent at build time.
type BuildLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BuildID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null;default:1"`

	CreatedAt time.Time

	Component *Component `gorm:"foreignKey:ComponentID"`
}
