package model

import (
	"time"

	"github.com/google/uuid"
)

// Production box statuses.
const (
	BoxOpen      = "OPEN"
	BoxLoading   = "LOADING"
	BoxCompleted = "COMPLETED"
	BoxArchived  = "ARCHIVED"
)

// ProductionBox groups the stock items prepared by a reservation. Boxes stay
// OPEN until operators start loading, and remain queryable after completion
// for auditing.
type ProductionBox struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code    string    `gorm:"uniqueIndex;not null"` // BOX-YYYY-NNNNN
	BoxType string    `gorm:"not null"`             // PART | ASSEMBLY | COMMERCIAL | PRODUCT
	Status  string    `gorm:"not null;default:'OPEN'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	StockItems []StockItem `gorm:"foreignKey:ProductionBoxID"`
}

// Open reports whether the box still holds stock committed to an unfinished
// build intent.
func (b *ProductionBox) Open() bool {
	return b.Status == BoxOpen || b.Status == BoxLoading
}
