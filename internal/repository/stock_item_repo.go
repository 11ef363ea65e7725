package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockItemRepository is the data access contract for physical stock
// instances and their consumption links.
type StockItemRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByCode(ctx context.Context, code string) (*model.StockItem, error)
	ListByComponent(ctx context.Context, componentID uuid.UUID, statuses []string) ([]model.StockItem, error)
	ListByComponents(ctx context.Context, componentIDs []uuid.UUID) ([]model.StockItem, error)

	// ListByParentCode returns every instance consumed into the given parent
	// code (exact match on the denormalized back-reference).
	ListByParentCode(ctx context.Context, parentCode string) ([]model.StockItem, error)
	ListByBox(ctx context.Context, boxID uuid.UUID) ([]model.StockItem, error)

	SaveTx(tx *gorm.DB, item *model.StockItem) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// CountCommittedToOpenBoxes counts instances of the given components
	// sitting in OPEN/LOADING boxes — stock already promised to a build
	// intent that has not completed.
	CountCommittedToOpenBoxes(ctx context.Context, componentIDs []uuid.UUID) (int64, error)

	// NextSerial returns the next 1-based sequence number for serial
	// generation.
	NextSerial(ctx context.Context) (int, error)

	DB() *gorm.DB
}

type stockItemRepo struct{ db *gorm.DB }

func NewStockItemRepository(db *gorm.DB) StockItemRepository { return &stockItemRepo{db: db} }

func (r *stockItemRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *stockItemRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).
		Preload("Component").Preload("Component.Master").Preload("ProductionBox").
		First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockItemRepo) FindByCode(ctx context.Context, code string) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).
		Preload("Component").Preload("Component.Master").
		Where("code = ?", code).
		Order("created_at ASC").First(&item).Error
	return &item, err
}

func (r *stockItemRepo) ListByComponent(ctx context.Context, componentID uuid.UUID, statuses []string) ([]model.StockItem, error) {
	var out []model.StockItem
	q := r.db.WithContext(ctx).Where("component_id = ?", componentID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *stockItemRepo) ListByComponents(ctx context.Context, componentIDs []uuid.UUID) ([]model.StockItem, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	var out []model.StockItem
	err := r.db.WithContext(ctx).Where("component_id IN ?", componentIDs).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *stockItemRepo) ListByParentCode(ctx context.Context, parentCode string) ([]model.StockItem, error) {
	var out []model.StockItem
	err := r.db.WithContext(ctx).
		Preload("Component").Preload("Component.Master").
		Where("parent_code = ?", parentCode).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *stockItemRepo) ListByBox(ctx context.Context, boxID uuid.UUID) ([]model.StockItem, error) {
	var out []model.StockItem
	err := r.db.WithContext(ctx).
		Preload("Component").Preload("Component.Master").
		Where("production_box_id = ?", boxID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *stockItemRepo) SaveTx(tx *gorm.DB, item *model.StockItem) error {
	return r.conn(tx).Save(item).Error
}

func (r *stockItemRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return r.conn(tx).Model(&model.StockItem{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *stockItemRepo) CountCommittedToOpenBoxes(ctx context.Context, componentIDs []uuid.UUID) (int64, error) {
	if len(componentIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.StockItem{}).
		Joins("JOIN production_boxes pb ON pb.id = stock_items.production_box_id").
		Where("stock_items.component_id IN ?", componentIDs).
		Where("pb.status IN ?", []string{model.BoxOpen, model.BoxLoading}).
		Where("stock_items.status <> ?", model.StockCompleted).
		Count(&n).Error
	return n, err
}

func (r *stockItemRepo) NextSerial(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.StockItem{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

func (r *stockItemRepo) DB() *gorm.DB { return r.db }
