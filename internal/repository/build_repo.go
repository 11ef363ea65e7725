package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuildRepository persists build records and their fallback line items.
type BuildRepository interface {
	CreateTx(tx *gorm.DB, build *model.BuildRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BuildRecord, error)

	// ListByComponents returns builds of any of the given composites,
	// newest first, with lines preloaded.
	ListByComponents(ctx context.Context, componentIDs []uuid.UUID) ([]model.BuildRecord, error)

	DB() *gorm.DB
}

type buildRepo struct{ db *gorm.DB }

func NewBuildRepository(db *gorm.DB) BuildRepository { return &buildRepo{db: db} }

func (r *buildRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *buildRepo) CreateTx(tx *gorm.DB, build *model.BuildRecord) error {
	return r.conn(tx).Create(build).Error
}

func (r *buildRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BuildRecord, error) {
	var b model.BuildRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Lines.Component").
		Preload("Component").Preload("Operator").Preload("ProductionBox").
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *buildRepo) ListByComponents(ctx context.Context, componentIDs []uuid.UUID) ([]model.BuildRecord, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	var out []model.BuildRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Lines.Component").
		Preload("Component").Preload("ProductionBox").
		Where("component_id IN ?", componentIDs).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *buildRepo) DB() *gorm.DB { return r.db }
