package model

import (
	"time"

	"github.com/google/uuid"
)

// Operator is the minimal actor record stamped on build records and audit
// metadata. Authentication happens in the surrounding application; this
// table carries no credentials.
type Operator struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DisplayName string    `gorm:"not null"`
	Email       string    `gorm:"uniqueIndex;not null"`
	Active      bool      `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
