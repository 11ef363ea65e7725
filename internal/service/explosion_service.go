package service

import (
	"context"

	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExplosionService computes buildable unit counts from the recursive BOM.
// A composite is gated by its scarcest input: the floor of the minimum
// on-hand/required ratio across its immediate children.
type ExplosionService interface {
	// BuildableUnits returns how many complete units of the component can
	// be built from current stock. Leaves return their own floored on-hand
	// quantity (duplicate-aware).
	BuildableUnits(ctx context.Context, componentID uuid.UUID) (int64, error)

	// ReservedUnits counts units of the composite already committed to
	// open (non-completed) production boxes.
	ReservedUnits(ctx context.Context, componentID uuid.UUID) (int64, error)

	// AvailableUnits is buildable minus reserved, floored at zero.
	AvailableUnits(ctx context.Context, componentID uuid.UUID) (int64, error)
}

type explosionService struct {
	components repository.ComponentRepository
	bom        repository.BOMRepository
	stockItems repository.StockItemRepository
	identity   IdentityService
	ledger     LedgerService
}

func NewExplosionService(
	components repository.ComponentRepository,
	bom repository.BOMRepository,
	stockItems repository.StockItemRepository,
	identity IdentityService,
	ledger LedgerService,
) ExplosionService {
	return &explosionService{
		components: components,
		bom:        bom,
		stockItems: stockItems,
		identity:   identity,
		ledger:     ledger,
	}
}

func (s *explosionService) BuildableUnits(ctx context.Context, componentID uuid.UUID) (int64, error) {
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return 0, &NotFoundError{Kind: "component", Ref: componentID.String()}
	}
	return s.buildable(ctx, c)
}

// buildable gates a composite by its scarcest immediate input. Children are
// read at their duplicate-aware on-hand quantity; sub-assemblies count only
// what is physically on the shelf, not what could in turn be built.
func (s *explosionService) buildable(ctx context.Context, c *model.Component) (int64, error) {
	children, err := s.bom.ListChildren(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	if len(children) == 0 {
		qty, err := s.ledger.CurrentQuantityTx(ctx, nil, c)
		if err != nil {
			return 0, err
		}
		return qty.Floor().IntPart(), nil
	}

	haveRatio := false
	var min int64
	for _, line := range children {
		if line.Child == nil {
			continue
		}
		required := line.Quantity
		if !required.IsPositive() {
			required = decimal.NewFromInt(1)
		}
		onHand, err := s.ledger.CurrentQuantityTx(ctx, nil, line.Child)
		if err != nil {
			return 0, err
		}
		ratio := onHand.Div(required).Floor().IntPart()
		if !haveRatio || ratio < min {
			min = ratio
			haveRatio = true
		}
	}
	if !haveRatio {
		return 0, nil
	}
	if min < 0 {
		min = 0
	}
	return min, nil
}

func (s *explosionService) ReservedUnits(ctx context.Context, componentID uuid.UUID) (int64, error) {
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return 0, &NotFoundError{Kind: "component", Ref: componentID.String()}
	}
	dups, err := s.identity.FindDuplicatesTx(nil, c)
	if err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, 0, len(dups))
	for _, d := range dups {
		ids = append(ids, d.ID)
	}
	return s.stockItems.CountCommittedToOpenBoxes(ctx, ids)
}

func (s *explosionService) AvailableUnits(ctx context.Context, componentID uuid.UUID) (int64, error) {
	buildable, err := s.BuildableUnits(ctx, componentID)
	if err != nil {
		return 0, err
	}
	reserved, err := s.ReservedUnits(ctx, componentID)
	if err != nil {
		return 0, err
	}
	available := buildable - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}
