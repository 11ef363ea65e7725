package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionLoad      = "LOAD"
	ActionAssociate = "ASSOCIATE"
	ActionComplete  = "COMPLETE"
	ActionScrap     = "SCRAP"
)

// AuditEvent is an immutable log entry tied to a stock instance code.
// Meta snapshots identity fields (name, description, revision, operator) at
// the time of the event so later master-data edits never rewrite history.
// Rows are append-only; ordering is by CreatedAt.
type AuditEvent struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code   string    `gorm:"index;not null"`
	Action string    `gorm:"not null"`
	Meta   string    `gorm:"type:text"` // JSON, see EventMeta

	CreatedAt time.Time
}

// EventMeta is the snapshot payload serialized into AuditEvent.Meta.
type EventMeta struct {
	BoxID         string `json:"box_id,omitempty"`
	AssemblyCode  string `json:"assembly_code,omitempty"`
	BuildID       string `json:"build_id,omitempty"`
	OperatorID    string `json:"operator_id,omitempty"`
	OperatorEmail string `json:"operator_email,omitempty"`

	ComponentName        string `json:"component_name,omitempty"`
	ComponentDescription string `json:"component_description,omitempty"`
	RevisionLabel        string `json:"revision_label,omitempty"`
	RevisionIndex        *int   `json:"revision_index,omitempty"`
}

// DecodeMeta parses the JSON payload, returning a zero meta on malformed or
// empty input — legacy rows may carry plain text.
func (e *AuditEvent) DecodeMeta() EventMeta {
	var m EventMeta
	if e.Meta == "" {
		return m
	}
	_ = json.Unmarshal([]byte(e.Meta), &m)
	return m
}
