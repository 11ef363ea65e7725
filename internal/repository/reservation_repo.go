package repository

import (
	"context"

	"stocktrace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationRepository manages production/reservation requests.
type ReservationRepository interface {
	Create(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepository(db *gorm.DB) ReservationRepository { return &reservationRepo{db: db} }

func (r *reservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).Preload("Component").First(&res, "id = ?", id).Error
	return &res, err
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Reservation{}).Where("id = ?", id).
		Update("status", status).Error
}
