package service

import (
	"context"
	"time"

	"stocktrace/internal/dmcode"
	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// historyMaxDepth bounds recursion as a second line of defense behind the
// visited set.
const historyMaxDepth = 10

// HistoryService reconstructs the nested consumption history of finished
// builds. Resolution per node, first strategy that yields results wins:
// runtime trace (exact parent link, alias, same-container heuristic),
// recorded build lines, static BOM definition. The reconstruction is a pure
// read — calling it twice with no intervening writes yields identical trees.
type HistoryService interface {
	// GetHistory returns one tree per build record of the component (or any
	// of its duplicates), newest first. Builds whose own assembly instance
	// was consumed elsewhere are filtered out of the top level; they appear
	// nested under their consumer.
	GetHistory(ctx context.Context, componentID uuid.UUID) ([]dto.ConsumptionTree, error)

	// ReconstructBuild renders the consumption tree of a single build
	// record (report view).
	ReconstructBuild(ctx context.Context, buildID uuid.UUID) (*dto.ConsumptionTree, error)

	// ListEvents returns the raw audit timeline for the component's
	// instances, newest first (archive view).
	ListEvents(ctx context.Context, componentID uuid.UUID) ([]model.AuditEvent, error)
}

type historyService struct {
	components  repository.ComponentRepository
	bom         repository.BOMRepository
	stockItems  repository.StockItemRepository
	builds      repository.BuildRepository
	audit       repository.AuditRepository
	documents   repository.DocumentRepository
	identity    IdentityService
	association AssociationService
}

func NewHistoryService(
	components repository.ComponentRepository,
	bom repository.BOMRepository,
	stockItems repository.StockItemRepository,
	builds repository.BuildRepository,
	audit repository.AuditRepository,
	documents repository.DocumentRepository,
	identity IdentityService,
	association AssociationService,
) HistoryService {
	return &historyService{
		components:  components,
		bom:         bom,
		stockItems:  stockItems,
		builds:      builds,
		audit:       audit,
		documents:   documents,
		identity:    identity,
		association: association,
	}
}

// reconstruction carries the per-call state: the document single-assignment
// set and the visited guard shared across one GetHistory invocation.
type reconstruction struct {
	svc          *historyService
	assignedDocs map[uuid.UUID]bool
}

func (s *historyService) GetHistory(ctx context.Context, componentID uuid.UUID) ([]dto.ConsumptionTree, error) {
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return nil, &NotFoundError{Kind: "component", Ref: componentID.String()}
	}
	dups, err := s.identity.FindDuplicatesTx(nil, c)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(dups))
	for _, d := range dups {
		ids = append(ids, d.ID)
	}

	builds, err := s.builds.ListByComponents(ctx, ids)
	if err != nil {
		return nil, err
	}

	rec := &reconstruction{svc: s, assignedDocs: map[uuid.UUID]bool{}}

	// Builds arrive newest first, but documents attach to the EARLIEST
	// qualifying event, so reconstruct oldest first and reverse at the end.
	trees := make([]dto.ConsumptionTree, 0, len(builds))
	for i := len(builds) - 1; i >= 0; i-- {
		b := builds[i]

		// Top-level filtering: a build whose own assembly instance carries
		// a parent link is nested under its consumer, never listed here.
		if b.AssemblyCode != nil {
			if item, err := s.stockItems.FindByCode(ctx, *b.AssemblyCode); err == nil && item.Consumed() {
				continue
			}
		}

		tree, err := rec.reconstruct(ctx, &b, historyMaxDepth)
		if err != nil {
			return nil, err
		}
		trees = append(trees, *tree)
	}

	for i, j := 0, len(trees)-1; i < j; i, j = i+1, j-1 {
		trees[i], trees[j] = trees[j], trees[i]
	}
	return trees, nil
}

func (s *historyService) ReconstructBuild(ctx context.Context, buildID uuid.UUID) (*dto.ConsumptionTree, error) {
	b, err := s.builds.FindByID(ctx, buildID)
	if err != nil {
		return nil, &NotFoundError{Kind: "build", Ref: buildID.String()}
	}
	rec := &reconstruction{svc: s, assignedDocs: map[uuid.UUID]bool{}}
	return rec.reconstruct(ctx, b, historyMaxDepth)
}

func (s *historyService) ListEvents(ctx context.Context, componentID uuid.UUID) ([]model.AuditEvent, error) {
	c, err := s.components.FindByID(ctx, componentID)
	if err != nil {
		return nil, &NotFoundError{Kind: "component", Ref: componentID.String()}
	}
	dups, err := s.identity.FindDuplicatesTx(nil, c)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(dups))
	for _, d := range dups {
		ids = append(ids, d.ID)
	}
	items, err := s.stockItems.ListByComponents(ctx, ids)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.Code] {
			seen[it.Code] = true
			codes = append(codes, it.Code)
		}
	}
	return s.audit.ListByCodesDesc(ctx, codes)
}

func (r *reconstruction) reconstruct(ctx context.Context, b *model.BuildRecord, maxDepth int) (*dto.ConsumptionTree, error) {
	tree := &dto.ConsumptionTree{
		BuildID:     b.ID.String(),
		ComponentID: b.ComponentID.String(),
		Qty:         b.Qty,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.Component != nil {
		tree.Name = b.Component.DisplayName()
	}
	if b.AssemblyCode != nil {
		tree.AssemblyCode = *b.AssemblyCode
	}
	if b.Operator != nil {
		tree.OperatorName = b.Operator.DisplayName
	}
	if b.ProductionBox != nil {
		tree.BoxCode = b.ProductionBox.Code
	}

	visited := map[string]bool{}
	children, err := r.childNodes(ctx, b, visited, maxDepth)
	if err != nil {
		return nil, err
	}
	tree.Children = children
	return tree, nil
}

// childNodes resolves the top level of a build's tree: runtime trace first,
// recorded build lines second, static BOM last.
func (r *reconstruction) childNodes(ctx context.Context, b *model.BuildRecord, visited map[string]bool, maxDepth int) ([]dto.ConsumptionNode, error) {
	if b.AssemblyCode != nil {
		traced, err := r.traceChildren(ctx, *b.AssemblyCode, b.ProductionBoxID, visited, maxDepth)
		if err != nil {
			return nil, err
		}
		if len(traced) > 0 {
			return traced, nil
		}
	}

	if len(b.Lines) > 0 {
		nodes := make([]dto.ConsumptionNode, 0, len(b.Lines))
		for _, line := range b.Lines {
			node := dto.ConsumptionNode{
				ComponentID: line.ComponentID.String(),
				Quantity:    line.Quantity.Mul(decimal.NewFromInt(int64(b.Qty))),
				Source:      dto.SourceLines,
			}
			if line.Component != nil {
				node.Name = line.Component.DisplayName()
				node.Description = stringValue(line.Component.Description)
				node.RevisionLabel = line.Component.RevisionLabel()
			}
			sub, err := r.expand(ctx, line.ComponentID, visited, maxDepth-1)
			if err != nil {
				return nil, err
			}
			node.Children = sub
			nodes = append(nodes, node)
		}
		return nodes, nil
	}

	return r.bomChildren(ctx, b.ComponentID, decimal.NewFromInt(int64(b.Qty)), visited, maxDepth)
}

// traceChildren builds one node per physical instance consumed into the
// parent code. Duplicates are intentionally separate rows — history is kept
// at physical-unit granularity.
func (r *reconstruction) traceChildren(ctx context.Context, parentCode string, boxID *uuid.UUID, visited map[string]bool, maxDepth int) ([]dto.ConsumptionNode, error) {
	if maxDepth <= 0 || visited[parentCode] {
		return nil, nil
	}
	visited[parentCode] = true

	items, err := r.svc.association.ListAssociated(ctx, parentCode)
	if err != nil {
		return nil, err
	}
	source := dto.SourceTrace

	// Same-container heuristic, composite-typed parents only: treat the
	// box's unassociated items as implicit children when no explicit trace
	// exists. Plain parts never trigger this, so they are not mis-exploded.
	if len(items) == 0 && boxID != nil && dmcode.IsComposite(parentCode) {
		boxItems, err := r.svc.stockItems.ListByBox(ctx, *boxID)
		if err != nil {
			return nil, err
		}
		for _, it := range boxItems {
			if it.Code == parentCode || it.Consumed() {
				continue
			}
			items = append(items, it)
		}
		source = dto.SourceContainer
	}

	if len(items) == 0 {
		return nil, nil
	}

	nodes := make([]dto.ConsumptionNode, 0, len(items))
	for _, it := range items {
		node, err := r.instanceNode(ctx, it, source, visited, maxDepth)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	return nodes, nil
}

// instanceNode renders one physical unit, preferring the frozen audit
// snapshot over the live component record, and recurses when the unit is
// itself composite.
func (r *reconstruction) instanceNode(ctx context.Context, it model.StockItem, source string, visited map[string]bool, maxDepth int) (*dto.ConsumptionNode, error) {
	node := &dto.ConsumptionNode{
		Code:        it.Code,
		ComponentID: it.ComponentID.String(),
		Quantity:    decimal.NewFromInt(1),
		Status:      it.Status,
		Source:      source,
	}

	if meta, ok := r.snapshotFor(ctx, it.Code); ok {
		node.Name = meta.ComponentName
		node.Description = meta.ComponentDescription
		node.RevisionLabel = meta.RevisionLabel
	} else if it.Component != nil {
		node.Name = it.Component.DisplayName()
		node.Description = stringValue(it.Component.Description)
		node.RevisionLabel = it.Component.RevisionLabel()
	}

	docs, err := r.claimDocuments(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	node.Documents = docs

	if r.isComposite(ctx, it) && maxDepth > 0 {
		children, err := r.traceChildren(ctx, it.Code, it.ProductionBoxID, visited, maxDepth-1)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			children, err = r.bomChildren(ctx, it.ComponentID, decimal.NewFromInt(1), visited, maxDepth-1)
			if err != nil {
				return nil, err
			}
		}
		node.Children = children
	}
	return node, nil
}

// expand renders the subtree of a component referenced without a physical
// instance (build-line and BOM fallback paths).
func (r *reconstruction) expand(ctx context.Context, componentID uuid.UUID, visited map[string]bool, maxDepth int) ([]dto.ConsumptionNode, error) {
	if maxDepth <= 0 {
		return nil, nil
	}
	return r.bomChildren(ctx, componentID, decimal.NewFromInt(1), visited, maxDepth)
}

// bomChildren is the static-definition fallback. It reflects the BOM as it
// is NOW, which may differ from the BOM at build time; nodes are labelled
// with their source so consumers can tell.
func (r *reconstruction) bomChildren(ctx context.Context, parentID uuid.UUID, factor decimal.Decimal, visited map[string]bool, maxDepth int) ([]dto.ConsumptionNode, error) {
	if maxDepth <= 0 {
		return nil, nil
	}
	key := "c:" + parentID.String()
	if visited[key] {
		return nil, nil
	}
	visited[key] = true

	lines, err := r.svc.bom.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	nodes := make([]dto.ConsumptionNode, 0, len(lines))
	for _, line := range lines {
		node := dto.ConsumptionNode{
			ComponentID: line.ChildID.String(),
			Quantity:    requiredQty(line).Mul(factor),
			Source:      dto.SourceBOM,
		}
		if line.Child != nil {
			node.Name = line.Child.DisplayName()
			node.Description = stringValue(line.Child.Description)
			node.RevisionLabel = line.Child.RevisionLabel()
		}
		sub, err := r.bomChildren(ctx, line.ChildID, decimal.NewFromInt(1), visited, maxDepth-1)
		if err != nil {
			return nil, err
		}
		node.Children = sub
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// snapshotFor returns the earliest audit snapshot carrying identity fields
// for the code.
func (r *reconstruction) snapshotFor(ctx context.Context, code string) (model.EventMeta, bool) {
	events, err := r.svc.audit.ListByCodes(ctx, []string{code})
	if err != nil {
		return model.EventMeta{}, false
	}
	for _, ev := range events {
		meta := ev.DecodeMeta()
		if meta.ComponentName != "" {
			return meta, true
		}
	}
	return model.EventMeta{}, false
}

// claimDocuments assigns each document artifact to the single earliest event
// that references it within one GetHistory call. Once claimed, an artifact
// never reappears under a later node.
func (r *reconstruction) claimDocuments(ctx context.Context, itemID uuid.UUID) ([]dto.DocumentRef, error) {
	docs, err := r.svc.documents.ListByOwner(ctx, model.OwnerStock, itemID)
	if err != nil {
		return nil, err
	}
	var refs []dto.DocumentRef
	for _, d := range docs {
		if r.assignedDocs[d.ID] {
			continue
		}
		r.assignedDocs[d.ID] = true
		refs = append(refs, dto.DocumentRef{
			ID:       d.ID.String(),
			Category: d.Category,
			URL:      d.URL,
			Status:   d.Status,
		})
	}
	return refs, nil
}

// isComposite decides whether the instance should be expanded: an explicit
// composite type tag on either the code or the component, or a BOM of its
// own.
func (r *reconstruction) isComposite(ctx context.Context, it model.StockItem) bool {
	if dmcode.IsComposite(it.Code) {
		return true
	}
	if it.Component != nil && it.Component.IsAssembly {
		return true
	}
	has, err := r.svc.bom.HasChildren(ctx, it.ComponentID)
	return err == nil && has
}
