package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses.
const (
	ReservationOpen      = "OPEN"
	ReservationPartial   = "PARTIAL"
	ReservationClosed    = "CLOSED"
	ReservationCancelled = "CANCELLED"
)

// Reservation records the intent to produce or prepare units of a component.
// It spawns one or more production boxes holding the stock items to be built.
type Reservation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Qty         int       `gorm:"not null"`
	Note        *string
	Status      string `gorm:"not null;default:'OPEN'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Component *Component `gorm:"foreignKey:ComponentID"`
}
