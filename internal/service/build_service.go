package service

import (
	"context"
	"fmt"
	"time"

	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"
	"stocktrace/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BuildService is the build transactor. A build attempt moves through
// Validating → Committing → Completed|Rejected: every precondition is
// checked before any write, and the commit phase runs inside a single
// transaction that rolls back as a whole on any failure.
type BuildService interface {
	AttemptBuild(ctx context.Context, req dto.BuildRequest, actor *model.Operator) (*dto.BuildResponse, error)
	GetBuild(ctx context.Context, id uuid.UUID) (*model.BuildRecord, error)
}

type buildService struct {
	components  repository.ComponentRepository
	bom         repository.BOMRepository
	stockItems  repository.StockItemRepository
	boxes       repository.ProductionBoxRepository
	builds      repository.BuildRepository
	documents   repository.DocumentRepository
	auditRepo   repository.AuditRepository
	ledger      LedgerService
	association AssociationService
	identity    IdentityService
	dispatcher  *worker.Dispatcher
}

func NewBuildService(
	components repository.ComponentRepository,
	bom repository.BOMRepository,
	stockItems repository.StockItemRepository,
	boxes repository.ProductionBoxRepository,
	builds repository.BuildRepository,
	documents repository.DocumentRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	association AssociationService,
	identity IdentityService,
	dispatcher *worker.Dispatcher,
) BuildService {
	return &buildService{
		components:  components,
		bom:         bom,
		stockItems:  stockItems,
		boxes:       boxes,
		builds:      builds,
		documents:   documents,
		auditRepo:   auditRepo,
		ledger:      ledger,
		association: association,
		identity:    identity,
		dispatcher:  dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *buildService) GetBuild(ctx context.Context, id uuid.UUID) (*model.BuildRecord, error) {
	b, err := s.builds.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Kind: "build", Ref: id.String()}
	}
	return b, nil
}

func (s *buildService) AttemptBuild(ctx context.Context, req dto.BuildRequest, actor *model.Operator) (*dto.BuildResponse, error) {
	compositeID, err := uuid.Parse(req.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("invalid component_id: %w", err)
	}
	composite, err := s.components.FindByID(ctx, compositeID)
	if err != nil {
		return nil, &NotFoundError{Kind: "component", Ref: req.ComponentID}
	}

	children, err := s.bom.ListChildren(ctx, compositeID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("component %s has no bill of materials", composite.Name)
	}

	// Resolve the originating container and the assembly instance code, if
	// any. Association completeness only applies to container builds.
	var box *model.ProductionBox
	var assemblyCode string
	if req.BoxID != nil {
		boxID, err := uuid.Parse(*req.BoxID)
		if err != nil {
			return nil, fmt.Errorf("invalid box_id: %w", err)
		}
		box, err = s.boxes.FindByID(ctx, boxID)
		if err != nil {
			return nil, &NotFoundError{Kind: "box", Ref: *req.BoxID}
		}
		if !box.Open() {
			return nil, fmt.Errorf("box %s is %s and cannot accept a build", box.Code, box.Status)
		}
		assemblyCode, err = s.assemblyCodeInBox(box, composite)
		if err != nil {
			return nil, err
		}
	}

	qty := decimal.NewFromInt(int64(req.Qty))
	provided := map[string]bool{}
	for _, cat := range req.ProvidedDocuments {
		provided[cat] = true
	}

	var build model.BuildRecord
	var consumed []model.StockItem
	type deltaResult struct {
		component *model.Component
		newQty    decimal.Decimal
	}
	var applied []deltaResult

	txErr := runTx(ctx, s.builds.DB(), func(tx *gorm.DB) error {
		// ── Validating ──────────────────────────────────────────────

		// 1. Stock sufficiency, duplicate-aware.
		var shortfalls []Shortfall
		for _, line := range children {
			if line.Child == nil {
				continue
			}
			required := requiredQty(line).Mul(qty)
			onHand, err := s.ledger.CurrentQuantityTx(ctx, tx, line.Child)
			if err != nil {
				return err
			}
			if onHand.LessThan(required) {
				shortfalls = append(shortfalls, Shortfall{
					ComponentID: line.ChildID.String(),
					Name:        line.Child.Name,
					Required:    required,
					OnHand:      onHand,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		// 2. Documentation completeness.
		if err := s.checkDocuments(ctx, composite, provided); err != nil {
			return err
		}
		if box == nil {
			// Component-level flow: each child's own required documents
			// must be satisfied too.
			for _, line := range children {
				if line.Child == nil {
					continue
				}
				if err := s.checkDocuments(ctx, line.Child, provided); err != nil {
					return err
				}
			}
		}

		// 3. Association completeness (container builds only).
		if box != nil {
			var assocShortfalls []AssociationShortfall
			for _, line := range children {
				if line.Child == nil {
					continue
				}
				required := requiredQty(line).Mul(qty).Ceil().IntPart()
				n, err := s.association.CountAssociated(ctx, assemblyCode, line.Child)
				if err != nil {
					return err
				}
				if n < required {
					assocShortfalls = append(assocShortfalls, AssociationShortfall{
						ComponentID: line.ChildID.String(),
						Name:        line.Child.Name,
						Required:    required,
						Associated:  n,
					})
				}
			}
			if len(assocShortfalls) > 0 {
				return &AssociationIncompleteError{Shortfalls: assocShortfalls}
			}
		}

		// ── Committing ──────────────────────────────────────────────

		for _, line := range children {
			if line.Child == nil {
				continue
			}
			newQty, err := s.ledger.ApplyDeltaTx(ctx, tx, line.Child, requiredQty(line).Mul(qty).Neg())
			if err != nil {
				return err
			}
			applied = append(applied, deltaResult{component: line.Child, newQty: newQty})
		}
		if _, err := s.ledger.ApplyDeltaTx(ctx, tx, composite, qty); err != nil {
			return err
		}

		build = model.BuildRecord{
			ComponentID: compositeID,
			Qty:         req.Qty,
		}
		if actor != nil {
			build.OperatorID = &actor.ID
		}
		if box != nil {
			build.ProductionBoxID = &box.ID
			build.AssemblyCode = &assemblyCode
		}
		for _, line := range children {
			if line.Child == nil {
				continue
			}
			build.Lines = append(build.Lines, model.BuildLine{
				ComponentID: line.ChildID,
				Quantity:    requiredQty(line),
			})
		}
		if err := s.builds.CreateTx(tx, &build); err != nil {
			return err
		}

		// Close out every instance consumed into this assembly and freeze
		// its identity snapshot in the audit log.
		if box != nil {
			consumed, err = s.association.ListAssociated(ctx, assemblyCode)
			if err != nil {
				return err
			}
			for _, item := range consumed {
				if err := s.stockItems.UpdateStatusTx(tx, item.ID, model.StockCompleted); err != nil {
					return err
				}
				ev := &model.AuditEvent{
					Code:   item.Code,
					Action: model.ActionComplete,
					Meta: encodeMeta(snapshotMeta(item.Component, actor, model.EventMeta{
						BoxID:        box.ID.String(),
						AssemblyCode: assemblyCode,
						BuildID:      build.ID.String(),
					})),
				}
				if err := s.auditRepo.CreateTx(tx, ev); err != nil {
					return err
				}
			}
			if err := s.boxes.UpdateStatusTx(tx, box.ID, model.BoxCompleted); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Best-effort replenishment alerts for children that dropped below
	// their resolved threshold.
	if s.dispatcher != nil {
		for _, d := range applied {
			threshold := resolvedThreshold(d.component)
			if threshold != nil && d.newQty.LessThan(*threshold) {
				payload := map[string]interface{}{
					"component_id": d.component.ID.String(),
					"on_hand":      d.newQty.String(),
					"threshold":    threshold.String(),
				}
				if err := s.dispatcher.EnqueueReplenishment(ctx, payload); err != nil {
					log.Warn().Err(err).Str("component", d.component.ID.String()).
						Msg("failed to enqueue replenishment alert")
				}
			}
		}
	}

	return buildToResponse(&build, assemblyCode), nil
}

// assemblyCodeInBox locates the instance code of the assembly unit inside
// the container. The box is created with one instance of the composite when
// the reservation is made.
func (s *buildService) assemblyCodeInBox(box *model.ProductionBox, composite *model.Component) (string, error) {
	dups, err := s.identity.FindDuplicatesTx(nil, composite)
	if err != nil {
		return "", err
	}
	ids := map[uuid.UUID]bool{}
	for _, d := range dups {
		ids[d.ID] = true
	}
	for _, item := range box.StockItems {
		if ids[item.ComponentID] {
			return item.Code, nil
		}
	}
	return "", &NotFoundError{Kind: "assembly instance", Ref: box.Code}
}

// checkDocuments fails with MissingDocumentError when any REQUIRED category
// on the owner has neither an uploaded/approved file nor a caller-provided
// one.
func (s *buildService) checkDocuments(ctx context.Context, c *model.Component, provided map[string]bool) error {
	docs, err := s.documents.ListByOwner(ctx, model.OwnerComponent, c.ID)
	if err != nil {
		return err
	}
	satisfied := map[string]bool{}
	var required []string
	for _, d := range docs {
		if d.Provided() {
			satisfied[d.Category] = true
		}
	}
	for _, d := range docs {
		if d.Status == model.DocRequired && !satisfied[d.Category] && !provided[d.Category] {
			required = append(required, d.Category)
		}
	}
	if len(required) > 0 {
		return &MissingDocumentError{Owner: c.Name, Categories: required}
	}
	return nil
}

func requiredQty(line model.BOMLine) decimal.Decimal {
	if !line.Quantity.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return line.Quantity
}

// resolvedThreshold returns the component's own stock threshold, falling
// back to its master's default.
func resolvedThreshold(c *model.Component) *decimal.Decimal {
	if c.StockThreshold != nil {
		return c.StockThreshold
	}
	if c.Master != nil && c.Master.StockThreshold != nil {
		return c.Master.StockThreshold
	}
	return nil
}

func buildToResponse(b *model.BuildRecord, assemblyCode string) *dto.BuildResponse {
	resp := &dto.BuildResponse{
		ID:           b.ID.String(),
		Status:       dto.BuildCompleted,
		ComponentID:  b.ComponentID.String(),
		Qty:          b.Qty,
		AssemblyCode: assemblyCode,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, line := range b.Lines {
		name := ""
		if line.Component != nil {
			name = line.Component.Name
		}
		resp.Lines = append(resp.Lines, dto.BuildLineResponse{
			ComponentID: line.ComponentID.String(),
			Name:        name,
			Quantity:    line.Quantity,
		})
	}
	return resp
}
