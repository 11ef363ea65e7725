package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock item lifecycle statuses.
const (
	StockFree         = "FREE"
	StockReserved     = "RESERVED"
	StockInProduction = "IN_PRODUCTION"
	StockLoaded       = "LOADED"
	StockCompleted    = "COMPLETED"
	StockAssociated   = "ASSOCIATED"
	StockScrapped     = "SCRAPPED"
)

// Instance code type segments (T=...).
const (
	TypePart       = "PART"
	TypeAssembly   = "ASSEMBLY"
	TypeCommercial = "COMMERCIAL"
	TypeProduct    = "PRODUCT"
)

// StockItem is one physically trackable unit of a component, identified by an
// opaque instance code. ParentCode is the denormalized back-reference to the
// code of the instance it was consumed into; empty means unconsumed.
// Rows are never hard-deleted — the archive views depend on them.
type StockItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Code is intentionally non-unique: lot-managed boxes share one code
	// across all contained items.
	Code       string  `gorm:"index;not null"`
	ParentCode *string `gorm:"index"`
	Status     string  `gorm:"not null;default:'FREE'"`
	Location   *string

	ReservationID   *uuid.UUID `gorm:"type:uuid;index"`
	ProductionBoxID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Component     *Component     `gorm:"foreignKey:ComponentID"`
	Reservation   *Reservation   `gorm:"foreignKey:ReservationID"`
	ProductionBox *ProductionBox `gorm:"foreignKey:ProductionBoxID"`
}

// Consumed reports whether the item has been linked into a parent assembly.
func (s *StockItem) Consumed() bool {
	return s.ParentCode != nil && *s.ParentCode != ""
}
