package model

import (
	"time"

	"github.com/google/uuid"
)

// Document owner types.
const (
	OwnerBox       = "BOX"
	OwnerStock     = "STOCK"
	OwnerComponent = "COMPONENT"
)

// Document statuses. REQUIRED rows define the mandatory categories for their
// owner; anything in UPLOADED or APPROVED counts as provided.
const (
	DocRequired = "REQUIRED"
	DocUploaded = "UPLOADED"
	DocApproved = "APPROVED"
	DocRejected = "REJECTED"
)

// Document references a file accompanying a stock item, box or component.
// The engine only reads existence and status; file storage lives in the
// surrounding application.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerType string    `gorm:"not null;index:idx_doc_owner"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_owner"`
	Category  string    `gorm:"not null"`
	URL       string
	Status    string `gorm:"not null;default:'REQUIRED'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Provided reports whether the document satisfies its category requirement.
func (d *Document) Provided() bool {
	return d.Status == DocUploaded || d.Status == DocApproved
}
