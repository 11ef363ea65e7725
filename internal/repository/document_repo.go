package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository { return &documentRepo{db: db} }

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]model.Document, error) {
	var out []model.Document
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).Update("status", status).Error
}
