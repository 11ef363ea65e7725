package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BOMRepository serves composite definitions (first-level children with
// required quantities).
type BOMRepository interface {
	Create(ctx context.Context, line *model.BOMLine) error
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.BOMLine, error)
	ListParents(ctx context.Context, childID uuid.UUID) ([]model.BOMLine, error)
	HasChildren(ctx context.Context, parentID uuid.UUID) (bool, error)
}

type bomRepo struct{ db *gorm.DB }

func NewBOMRepository(db *gorm.DB) BOMRepository { return &bomRepo{db: db} }

func (r *bomRepo) Create(ctx context.Context, line *model.BOMLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *bomRepo) ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.BOMLine, error) {
	var out []model.BOMLine
	err := r.db.WithContext(ctx).
		Preload("Child").Preload("Child.Master").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *bomRepo) ListParents(ctx context.Context, childID uuid.UUID) ([]model.BOMLine, error) {
	var out []model.BOMLine
	err := r.db.WithContext(ctx).Preload("Parent").
		Where("child_id = ?", childID).
		Find(&out).Error
	return out, err
}

func (r *bomRepo) HasChildren(ctx context.Context, parentID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.BOMLine{}).
		Where("parent_id = ?", parentID).Count(&n).Error
	return n > 0, err
}
