package repository

import (
	"context"
	"fmt"
	"time"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionBoxRepository manages build containers.
type ProductionBoxRepository interface {
	Create(ctx context.Context, box *model.ProductionBox) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionBox, error)
	FindByCode(ctx context.Context, code string) (*model.ProductionBox, error)
	ListOpen(ctx context.Context) ([]model.ProductionBox, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// NextCode generates the next BOX-YYYY-NNNNN code.
	NextCode(ctx context.Context) (string, error)
}

type boxRepo struct{ db *gorm.DB }

func NewProductionBoxRepository(db *gorm.DB) ProductionBoxRepository { return &boxRepo{db: db} }

func (r *boxRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *boxRepo) Create(ctx context.Context, box *model.ProductionBox) error {
	return r.db.WithContext(ctx).Create(box).Error
}

func (r *boxRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionBox, error) {
	var box model.ProductionBox
	err := r.db.WithContext(ctx).
		Preload("StockItems").Preload("StockItems.Component").
		First(&box, "id = ?", id).Error
	return &box, err
}

func (r *boxRepo) FindByCode(ctx context.Context, code string) (*model.ProductionBox, error) {
	var box model.ProductionBox
	err := r.db.WithContext(ctx).
		Preload("StockItems").Preload("StockItems.Component").
		Where("code = ?", code).First(&box).Error
	return &box, err
}

func (r *boxRepo) ListOpen(ctx context.Context) ([]model.ProductionBox, error) {
	var out []model.ProductionBox
	err := r.db.WithContext(ctx).
		Preload("StockItems").
		Where("status IN ?", []string{model.BoxOpen, model.BoxLoading}).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *boxRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return r.conn(tx).Model(&model.ProductionBox{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *boxRepo) NextCode(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ProductionBox{}).Count(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("BOX-%d-%05d", time.Now().UTC().Year(), n+1), nil
}
