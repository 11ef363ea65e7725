package service

import (
	"context"
	"fmt"

	"stocktrace/internal/dmcode"
	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoadService moves reserved stock into the warehouse: loading an item (or a
// whole box) transitions it to LOADED, appends a LOAD audit event with a
// frozen identity snapshot, and applies the accumulated increments through
// the Stock Ledger so duplicates reconcile in the same transaction.
type LoadService interface {
	LoadBox(ctx context.Context, boxID uuid.UUID, itemID *uuid.UUID, actor *model.Operator) (*dto.LoadResponse, error)

	// ManualIntake applies a positive ledger delta outside the box flow
	// (direct warehouse intake).
	ManualIntake(ctx context.Context, componentID uuid.UUID, qty decimal.Decimal, actor *model.Operator) (*dto.StockResponse, error)
}

type loadService struct {
	components repository.ComponentRepository
	boxes      repository.ProductionBoxRepository
	stockItems repository.StockItemRepository
	audit      repository.AuditRepository
	ledger     LedgerService
}

func NewLoadService(
	components repository.ComponentRepository,
	boxes repository.ProductionBoxRepository,
	stockItems repository.StockItemRepository,
	audit repository.AuditRepository,
	ledger LedgerService,
) LoadService {
	return &loadService{
		components: components,
		boxes:      boxes,
		stockItems: stockItems,
		audit:      audit,
		ledger:     ledger,
	}
}

func (s *loadService) LoadBox(ctx context.Context, boxID uuid.UUID, itemID *uuid.UUID, actor *model.Operator) (*dto.LoadResponse, error) {
	box, err := s.boxes.FindByID(ctx, boxID)
	if err != nil {
		return nil, &NotFoundError{Kind: "box", Ref: boxID.String()}
	}
	if !box.Open() {
		return nil, fmt.Errorf("box %s is %s and cannot be loaded", box.Code, box.Status)
	}

	// Pick the items to load: one, or every loadable item in the box.
	var targets []model.StockItem
	remaining := 0
	for _, item := range box.StockItems {
		loadable := item.Status == model.StockReserved || item.Status == model.StockInProduction
		if !loadable {
			continue
		}
		if itemID == nil || item.ID == *itemID {
			targets = append(targets, item)
		} else {
			remaining++
		}
	}
	if itemID != nil && len(targets) == 0 {
		return nil, &NotFoundError{Kind: "stock item", Ref: itemID.String()}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("box %s has nothing left to load", box.Code)
	}

	boxStatus := model.BoxCompleted
	if remaining > 0 {
		boxStatus = model.BoxLoading
	}

	txErr := runTx(ctx, s.components.DB(), func(tx *gorm.DB) error {
		// Accumulate increments per component so the ledger reconciles each
		// identity once.
		increments := map[uuid.UUID]int64{}
		byComponent := map[uuid.UUID]*model.Component{}

		for _, item := range targets {
			if err := s.stockItems.UpdateStatusTx(tx, item.ID, model.StockLoaded); err != nil {
				return err
			}
			ev := &model.AuditEvent{
				Code:   item.Code,
				Action: model.ActionLoad,
				Meta: encodeMeta(snapshotMeta(item.Component, actor, model.EventMeta{
					BoxID: box.ID.String(),
				})),
			}
			if err := s.audit.CreateTx(tx, ev); err != nil {
				return err
			}
			increments[item.ComponentID]++
			if item.Component != nil {
				byComponent[item.ComponentID] = item.Component
			}
		}

		for componentID, n := range increments {
			c := byComponent[componentID]
			if c == nil {
				fetched, err := s.components.FindByID(ctx, componentID)
				if err != nil {
					return err
				}
				c = fetched
			}
			if _, err := s.ledger.ApplyDeltaTx(ctx, tx, c, decimal.NewFromInt(n)); err != nil {
				return err
			}
		}

		return s.boxes.UpdateStatusTx(tx, box.ID, boxStatus)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("box", box.Code).
		Int("loaded", len(targets)).
		Str("status", boxStatus).
		Msg("box loaded")
	return &dto.LoadResponse{
		BoxID:     box.ID.String(),
		BoxStatus: boxStatus,
		Loaded:    len(targets),
	}, nil
}

func (s *loadService) ManualIntake(ctx context.Context, componentID uuid.UUID, qty decimal.Decimal, actor *model.Operator) (*dto.StockResponse, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("intake quantity must be positive")
	}
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return nil, &NotFoundError{Kind: "component", Ref: componentID.String()}
	}

	var newQty decimal.Decimal
	txErr := runTx(ctx, s.components.DB(), func(tx *gorm.DB) error {
		var err error
		newQty, err = s.ledger.ApplyDeltaTx(ctx, tx, c, qty)
		if err != nil {
			return err
		}
		// Intake has no physical instance; the event is keyed by the
		// component's alias code.
		alias := dmcode.Code{Identity: codeIdentity(c), Type: c.TypeLabel()}.Alias()
		ev := &model.AuditEvent{
			Code:   alias,
			Action: model.ActionLoad,
			Meta:   encodeMeta(snapshotMeta(c, actor, model.EventMeta{})),
		}
		return s.audit.CreateTx(tx, ev)
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.StockResponse{
		ComponentID: c.ID.String(),
		Name:        c.DisplayName(),
		OnHand:      newQty,
	}, nil
}
