package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComponentRepository is the data access contract for structure nodes and
// their master records. Services depend on this interface, not on the
// concrete GORM implementation, enabling clean unit testing via stubs.
//
// Tx methods take the live transaction handle; passing nil falls back to the
// base connection so read paths outside a transaction reuse the same code.
type ComponentRepository interface {
	Create(ctx context.Context, c *model.Component) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Component, error)
	FindByName(ctx context.Context, name string) (*model.Component, error)
	FindMasterByCode(ctx context.Context, code string) (*model.ComponentMaster, error)
	FindMasterByID(ctx context.Context, id uuid.UUID) (*model.ComponentMaster, error)
	CreateMaster(ctx context.Context, m *model.ComponentMaster) error
	Update(ctx context.Context, c *model.Component) error

	// Duplicate discovery for the identity resolver. Both queries are
	// needed: legacy rows may only match by name, migrated rows by master.
	FindByMasterIDTx(tx *gorm.DB, masterID uuid.UUID) ([]model.Component, error)
	FindByNameFoldTx(tx *gorm.DB, name string) ([]model.Component, error)

	// UpdateQuantityTx writes the reconciled on-hand quantity. Only the
	// Stock Ledger calls this.
	UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) error

	// ListBelowThreshold returns components whose on-hand quantity is under
	// their resolved stock threshold (own value, else master default).
	ListBelowThreshold(ctx context.Context) ([]model.Component, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type componentRepo struct{ db *gorm.DB }

func NewComponentRepository(db *gorm.DB) ComponentRepository { return &componentRepo{db: db} }

func (r *componentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *componentRepo) Create(ctx context.Context, c *model.Component) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *componentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Component, error) {
	var c model.Component
	err := r.db.WithContext(ctx).Preload("Master").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *componentRepo) FindByName(ctx context.Context, name string) (*model.Component, error) {
	var c model.Component
	err := r.db.WithContext(ctx).Preload("Master").
		Where("LOWER(TRIM(name)) = LOWER(TRIM(?))", name).
		Order("created_at ASC").First(&c).Error
	return &c, err
}

func (r *componentRepo) FindMasterByCode(ctx context.Context, code string) (*model.ComponentMaster, error) {
	var m model.ComponentMaster
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error
	return &m, err
}

func (r *componentRepo) FindMasterByID(ctx context.Context, id uuid.UUID) (*model.ComponentMaster, error) {
	var m model.ComponentMaster
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *componentRepo) CreateMaster(ctx context.Context, m *model.ComponentMaster) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *componentRepo) Update(ctx context.Context, c *model.Component) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *componentRepo) FindByMasterIDTx(tx *gorm.DB, masterID uuid.UUID) ([]model.Component, error) {
	var out []model.Component
	err := r.conn(tx).Where("master_id = ?", masterID).Find(&out).Error
	return out, err
}

func (r *componentRepo) FindByNameFoldTx(tx *gorm.DB, name string) ([]model.Component, error) {
	var out []model.Component
	err := r.conn(tx).Where("LOWER(TRIM(name)) = LOWER(TRIM(?))", name).Find(&out).Error
	return out, err
}

func (r *componentRepo) UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) error {
	return r.conn(tx).Model(&model.Component{}).Where("id = ?", id).
		Update("quantity_in_stock", qty).Error
}

func (r *componentRepo) ListBelowThreshold(ctx context.Context) ([]model.Component, error) {
	var out []model.Component
	err := r.db.WithContext(ctx).Preload("Master").
		Joins("LEFT JOIN component_masters cm ON cm.id = components.master_id").
		Where("COALESCE(components.stock_threshold, cm.stock_threshold) IS NOT NULL").
		Where("components.quantity_in_stock < COALESCE(components.stock_threshold, cm.stock_threshold)").
		Find(&out).Error
	return out, err
}

func (r *componentRepo) DB() *gorm.DB { return r.db }
