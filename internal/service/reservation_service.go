package service

import (
	"context"
	"fmt"
	"time"

	"stocktrace/internal/dmcode"
	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReservationService turns a production intent into containers and physical
// stock instances with generated codes. Assembly reservations get one box
// per unit so each assembly is tracked individually; everything else shares
// a single box. Lot-managed components share one instance code per box.
type ReservationService interface {
	CreateReservation(ctx context.Context, req dto.ReservationRequest) (*dto.ReservationResponse, error)
	GetBox(ctx context.Context, id uuid.UUID) (*dto.BoxResponse, error)
	ResolveCode(ctx context.Context, code string) (*dto.CodeResolution, error)
}

type reservationService struct {
	components   repository.ComponentRepository
	reservations repository.ReservationRepository
	boxes        repository.ProductionBoxRepository
	stockItems   repository.StockItemRepository
	audit        repository.AuditRepository
	identity     IdentityService
}

func NewReservationService(
	components repository.ComponentRepository,
	reservations repository.ReservationRepository,
	boxes repository.ProductionBoxRepository,
	stockItems repository.StockItemRepository,
	audit repository.AuditRepository,
	identity IdentityService,
) ReservationService {
	return &reservationService{
		components:   components,
		reservations: reservations,
		boxes:        boxes,
		stockItems:   stockItems,
		audit:        audit,
		identity:     identity,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, req dto.ReservationRequest) (*dto.ReservationResponse, error) {
	componentID, err := uuid.Parse(req.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("invalid component_id: %w", err)
	}
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return nil, &NotFoundError{Kind: "component", Ref: req.ComponentID}
	}

	res := &model.Reservation{
		ComponentID: componentID,
		Qty:         req.Qty,
		Note:        req.Note,
		Status:      model.ReservationOpen,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	identity := codeIdentity(c)
	boxType := c.TypeLabel()
	if c.Sellable && c.IsAssembly {
		boxType = model.TypeProduct
	}
	lotManaged := c.Master != nil && c.Master.LotManaged

	// One box per unit for assembly-typed reservations; everything else in
	// a single box.
	perBox := req.Qty
	boxCount := 1
	if boxType == model.TypeAssembly || boxType == model.TypeProduct {
		perBox = 1
		boxCount = req.Qty
	}

	resp := &dto.ReservationResponse{
		ID:          res.ID.String(),
		ComponentID: componentID.String(),
		Qty:         req.Qty,
		Status:      res.Status,
	}

	for b := 0; b < boxCount; b++ {
		code, err := s.boxes.NextCode(ctx)
		if err != nil {
			return nil, err
		}
		box := &model.ProductionBox{Code: code, BoxType: boxType, Status: model.BoxOpen}
		if err := s.boxes.Create(ctx, box); err != nil {
			return nil, err
		}

		boxResp := dto.BoxResponse{
			ID:      box.ID.String(),
			Code:    box.Code,
			BoxType: boxType,
			Status:  box.Status,
		}

		// Lot-managed boxes share one code across all contained items.
		var lotCode string
		for i := 0; i < perBox; i++ {
			itemCode := lotCode
			if itemCode == "" {
				seq, err := s.stockItems.NextSerial(ctx)
				if err != nil {
					return nil, err
				}
				itemCode = dmcode.Code{
					Identity: identity,
					Serial:   dmcode.Serial(seq),
					Type:     boxType,
				}.Format()
				if lotManaged {
					lotCode = itemCode
				}
			}

			item := &model.StockItem{
				ComponentID:     componentID,
				Code:            itemCode,
				Status:          model.StockReserved,
				ReservationID:   &res.ID,
				ProductionBoxID: &box.ID,
			}
			if err := s.stockItems.Create(ctx, item); err != nil {
				return nil, err
			}
			boxResp.Items = append(boxResp.Items, dto.StockItemResponse{
				ID:          item.ID.String(),
				Code:        item.Code,
				ComponentID: componentID.String(),
				Name:        c.DisplayName(),
				Status:      item.Status,
			})
		}

		resp.Boxes = append(resp.Boxes, boxResp)
	}

	log.Info().
		Str("reservation", res.ID.String()).
		Str("component", componentID.String()).
		Int("qty", req.Qty).
		Int("boxes", boxCount).
		Msg("reservation created")
	return resp, nil
}

func (s *reservationService) GetBox(ctx context.Context, id uuid.UUID) (*dto.BoxResponse, error) {
	box, err := s.boxes.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Kind: "box", Ref: id.String()}
	}
	return boxToResponse(box), nil
}

func (s *reservationService) ResolveCode(ctx context.Context, code string) (*dto.CodeResolution, error) {
	item, err := s.stockItems.FindByCode(ctx, code)
	if err != nil {
		return nil, &NotFoundError{Kind: "stock item", Ref: code}
	}

	resolution := &dto.CodeResolution{
		Code: code,
		Item: dto.StockItemResponse{
			ID:          item.ID.String(),
			Code:        item.Code,
			ComponentID: item.ComponentID.String(),
			Status:      item.Status,
			ParentCode:  stringValue(item.ParentCode),
		},
	}
	if item.Component != nil {
		resolution.ComponentName = item.Component.DisplayName()
		resolution.Item.Name = item.Component.DisplayName()
	}
	if item.ReservationID != nil {
		resolution.ReservationID = item.ReservationID.String()
	}
	if item.ProductionBoxID != nil {
		if box, err := s.boxes.FindByID(ctx, *item.ProductionBoxID); err == nil {
			resolution.Box = boxToResponse(box)
		}
	}

	events, err := s.audit.ListByCodesDesc(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		resolution.Events = append(resolution.Events, dto.AuditEventRecord{
			ID:        ev.ID.String(),
			Code:      ev.Code,
			Action:    ev.Action,
			Meta:      ev.Meta,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resolution, nil
}

// codeIdentity picks the P segment for generated codes: master code when the
// component has one, display name otherwise.
func codeIdentity(c *model.Component) string {
	if c.Master != nil {
		return c.Master.Code
	}
	return c.DisplayName()
}

func boxToResponse(box *model.ProductionBox) *dto.BoxResponse {
	resp := &dto.BoxResponse{
		ID:      box.ID.String(),
		Code:    box.Code,
		BoxType: box.BoxType,
		Status:  box.Status,
	}
	for _, item := range box.StockItems {
		r := dto.StockItemResponse{
			ID:          item.ID.String(),
			Code:        item.Code,
			ComponentID: item.ComponentID.String(),
			Status:      item.Status,
			ParentCode:  stringValue(item.ParentCode),
		}
		if item.Component != nil {
			r.Name = item.Component.DisplayName()
		}
		resp.Items = append(resp.Items, r)
	}
	return resp
}
