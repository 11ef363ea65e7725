package service

import (
	"context"

	"stocktrace/internal/dto"
	"stocktrace/internal/repository"

	"github.com/shopspring/decimal"
)

// AlertService lists components sitting below their resolved stock
// threshold. The replenishment worker consumes the same view on its
// periodic sweep.
type AlertService interface {
	ListAlerts(ctx context.Context) ([]dto.AlertResponse, error)
}

type alertService struct {
	components repository.ComponentRepository
}

func NewAlertService(components repository.ComponentRepository) AlertService {
	return &alertService{components: components}
}

func (s *alertService) ListAlerts(ctx context.Context) ([]dto.AlertResponse, error) {
	below, err := s.components.ListBelowThreshold(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertResponse, 0, len(below))
	for i := range below {
		c := &below[i]
		threshold := resolvedThreshold(c)
		if threshold == nil {
			continue
		}
		replenish := decimal.Zero
		if c.ReplenishQty != nil {
			replenish = *c.ReplenishQty
		} else if c.Master != nil && c.Master.ReplenishQty != nil {
			replenish = *c.Master.ReplenishQty
		}
		out = append(out, dto.AlertResponse{
			ComponentID:  c.ID.String(),
			Name:         c.DisplayName(),
			OnHand:       c.QuantityInStock,
			Threshold:    *threshold,
			ReplenishQty: replenish,
		})
	}
	return out, nil
}
