package repository

import (
	"context"

	"stocktrace/internal/model"

	"gorm.io/gorm"
)

// AuditRepository appends and reads the immutable event log. There is no
// update or delete on purpose.
type AuditRepository interface {
	CreateTx(tx *gorm.DB, ev *model.AuditEvent) error

	// ListByCodes returns events for any of the given instance codes ordered
	// by creation time ascending — the only ordering guarantee history
	// reconstruction relies on.
	ListByCodes(ctx context.Context, codes []string) ([]model.AuditEvent, error)

	// ListByCodesDesc is the archive view ordering (newest first).
	ListByCodesDesc(ctx context.Context, codes []string) ([]model.AuditEvent, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *auditRepo) CreateTx(tx *gorm.DB, ev *model.AuditEvent) error {
	return r.conn(tx).Create(ev).Error
}

func (r *auditRepo) ListByCodes(ctx context.Context, codes []string) ([]model.AuditEvent, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var out []model.AuditEvent
	err := r.db.WithContext(ctx).Where("code IN ?", codes).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *auditRepo) ListByCodesDesc(ctx context.Context, codes []string) ([]model.AuditEvent, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var out []model.AuditEvent
	err := r.db.WithContext(ctx).Where("code IN ?", codes).
		Order("created_at DESC").Find(&out).Error
	return out, err
}
