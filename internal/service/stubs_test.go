package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stocktrace/internal/model"
	"stocktrace/internal/repository"
	"stocktrace/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubComponentRepo is an in-memory ComponentRepository for testing.
type stubComponentRepo struct {
	components map[uuid.UUID]*model.Component
	masters    map[uuid.UUID]*model.ComponentMaster
	order      []uuid.UUID
}

func newStubComponentRepo() *stubComponentRepo {
	return &stubComponentRepo{
		components: make(map[uuid.UUID]*model.Component),
		masters:    make(map[uuid.UUID]*model.ComponentMaster),
	}
}

func (r *stubComponentRepo) Create(_ context.Context, c *model.Component) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.components[c.ID] = c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *stubComponentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Component, error) {
	c, ok := r.components[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (r *stubComponentRepo) FindByName(_ context.Context, name string) (*model.Component, error) {
	fold := strings.ToLower(strings.TrimSpace(name))
	for _, id := range r.order {
		if r.components[id].NormalizedName() == fold {
			return r.components[id], nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubComponentRepo) FindMasterByCode(_ context.Context, code string) (*model.ComponentMaster, error) {
	for _, m := range r.masters {
		if m.Code == code {
			return m, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubComponentRepo) FindMasterByID(_ context.Context, id uuid.UUID) (*model.ComponentMaster, error) {
	m, ok := r.masters[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func (r *stubComponentRepo) CreateMaster(_ context.Context, m *model.ComponentMaster) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.masters[m.ID] = m
	return nil
}

func (r *stubComponentRepo) Update(_ context.Context, c *model.Component) error {
	r.components[c.ID] = c
	return nil
}

func (r *stubComponentRepo) FindByMasterIDTx(_ *gorm.DB, masterID uuid.UUID) ([]model.Component, error) {
	var out []model.Component
	for _, id := range r.order {
		c := r.components[id]
		if c.MasterID != nil && *c.MasterID == masterID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubComponentRepo) FindByNameFoldTx(_ *gorm.DB, name string) ([]model.Component, error) {
	fold := strings.ToLower(strings.TrimSpace(name))
	var out []model.Component
	for _, id := range r.order {
		if r.components[id].NormalizedName() == fold {
			out = append(out, *r.components[id])
		}
	}
	return out, nil
}

func (r *stubComponentRepo) UpdateQuantityTx(_ *gorm.DB, id uuid.UUID, qty decimal.Decimal) error {
	c, ok := r.components[id]
	if !ok {
		return errors.New("not found")
	}
	c.QuantityInStock = qty
	return nil
}

func (r *stubComponentRepo) ListBelowThreshold(_ context.Context) ([]model.Component, error) {
	var out []model.Component
	for _, id := range r.order {
		c := r.components[id]
		threshold := c.StockThreshold
		if threshold == nil && c.Master != nil {
			threshold = c.Master.StockThreshold
		}
		if threshold != nil && c.QuantityInStock.LessThan(*threshold) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubComponentRepo) DB() *gorm.DB { return nil }

var _ repository.ComponentRepository = (*stubComponentRepo)(nil)

// stubBOMRepo keeps definition lines in memory and emulates child preloads
// from the component stub.
type stubBOMRepo struct {
	lines      []*model.BOMLine
	components *stubComponentRepo
}

func (r *stubBOMRepo) Create(_ context.Context, line *model.BOMLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *stubBOMRepo) ListChildren(_ context.Context, parentID uuid.UUID) ([]model.BOMLine, error) {
	var out []model.BOMLine
	for _, line := range r.lines {
		if line.ParentID == parentID {
			l := *line
			l.Child = r.components.components[line.ChildID]
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) ListParents(_ context.Context, childID uuid.UUID) ([]model.BOMLine, error) {
	var out []model.BOMLine
	for _, line := range r.lines {
		if line.ChildID == childID {
			l := *line
			l.Parent = r.components.components[line.ParentID]
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) HasChildren(_ context.Context, parentID uuid.UUID) (bool, error) {
	for _, line := range r.lines {
		if line.ParentID == parentID {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.BOMRepository = (*stubBOMRepo)(nil)

// stubBoxRepo stores production boxes; FindByID preloads items from the
// stock item stub.
type stubBoxRepo struct {
	boxes   map[uuid.UUID]*model.ProductionBox
	items   *stubStockItemRepo
	codeSeq int
}

func newStubBoxRepo() *stubBoxRepo {
	return &stubBoxRepo{boxes: make(map[uuid.UUID]*model.ProductionBox)}
}

func (r *stubBoxRepo) Create(_ context.Context, box *model.ProductionBox) error {
	if box.ID == uuid.Nil {
		box.ID = uuid.New()
	}
	r.boxes[box.ID] = box
	return nil
}

func (r *stubBoxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductionBox, error) {
	box, ok := r.boxes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	loaded := *box
	loaded.StockItems = nil
	if r.items != nil {
		for _, itemID := range r.items.order {
			it := r.items.items[itemID]
			if it.ProductionBoxID != nil && *it.ProductionBoxID == id {
				preloaded := *it
				preloaded.Component = r.items.components.components[it.ComponentID]
				loaded.StockItems = append(loaded.StockItems, preloaded)
			}
		}
	}
	return &loaded, nil
}

func (r *stubBoxRepo) FindByCode(ctx context.Context, code string) (*model.ProductionBox, error) {
	for id, box := range r.boxes {
		if box.Code == code {
			return r.FindByID(ctx, id)
		}
	}
	return nil, errors.New("not found")
}

func (r *stubBoxRepo) ListOpen(ctx context.Context) ([]model.ProductionBox, error) {
	var out []model.ProductionBox
	for id, box := range r.boxes {
		if box.Open() {
			loaded, _ := r.FindByID(ctx, id)
			out = append(out, *loaded)
		}
	}
	return out, nil
}

func (r *stubBoxRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	box, ok := r.boxes[id]
	if !ok {
		return errors.New("not found")
	}
	box.Status = status
	return nil
}

func (r *stubBoxRepo) NextCode(_ context.Context) (string, error) {
	r.codeSeq++
	return fmt.Sprintf("BOX-%d-%05d", time.Now().UTC().Year(), r.codeSeq), nil
}

var _ repository.ProductionBoxRepository = (*stubBoxRepo)(nil)

// stubStockItemRepo is the in-memory instance store.
type stubStockItemRepo struct {
	items      map[uuid.UUID]*model.StockItem
	order      []uuid.UUID
	components *stubComponentRepo
	boxes      *stubBoxRepo
}

func newStubStockItemRepo(components *stubComponentRepo, boxes *stubBoxRepo) *stubStockItemRepo {
	r := &stubStockItemRepo{
		items:      make(map[uuid.UUID]*model.StockItem),
		components: components,
		boxes:      boxes,
	}
	boxes.items = r
	return r
}

func (r *stubStockItemRepo) Create(_ context.Context, item *model.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return nil
}

func (r *stubStockItemRepo) preload(it *model.StockItem) model.StockItem {
	out := *it
	out.Component = r.components.components[it.ComponentID]
	return out
}

func (r *stubStockItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	loaded := r.preload(it)
	return &loaded, nil
}

func (r *stubStockItemRepo) FindByCode(_ context.Context, code string) (*model.StockItem, error) {
	for _, id := range r.order {
		if r.items[id].Code == code {
			loaded := r.preload(r.items[id])
			return &loaded, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubStockItemRepo) ListByComponent(_ context.Context, componentID uuid.UUID, statuses []string) ([]model.StockItem, error) {
	allowed := map[string]bool{}
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []model.StockItem
	for _, id := range r.order {
		it := r.items[id]
		if it.ComponentID != componentID {
			continue
		}
		if len(statuses) > 0 && !allowed[it.Status] {
			continue
		}
		out = append(out, r.preload(it))
	}
	return out, nil
}

func (r *stubStockItemRepo) ListByComponents(_ context.Context, componentIDs []uuid.UUID) ([]model.StockItem, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range componentIDs {
		wanted[id] = true
	}
	var out []model.StockItem
	for _, id := range r.order {
		if wanted[r.items[id].ComponentID] {
			out = append(out, r.preload(r.items[id]))
		}
	}
	return out, nil
}

func (r *stubStockItemRepo) ListByParentCode(_ context.Context, parentCode string) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, id := range r.order {
		it := r.items[id]
		if it.ParentCode != nil && *it.ParentCode == parentCode {
			out = append(out, r.preload(it))
		}
	}
	return out, nil
}

func (r *stubStockItemRepo) ListByBox(_ context.Context, boxID uuid.UUID) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, id := range r.order {
		it := r.items[id]
		if it.ProductionBoxID != nil && *it.ProductionBoxID == boxID {
			out = append(out, r.preload(it))
		}
	}
	return out, nil
}

func (r *stubStockItemRepo) SaveTx(_ *gorm.DB, item *model.StockItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return errors.New("not found")
	}
	stored := *item
	stored.Component = nil
	r.items[item.ID] = &stored
	return nil
}

func (r *stubStockItemRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	it, ok := r.items[id]
	if !ok {
		return errors.New("not found")
	}
	it.Status = status
	return nil
}

func (r *stubStockItemRepo) CountCommittedToOpenBoxes(_ context.Context, componentIDs []uuid.UUID) (int64, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range componentIDs {
		wanted[id] = true
	}
	var n int64
	for _, id := range r.order {
		it := r.items[id]
		if !wanted[it.ComponentID] || it.Status == model.StockCompleted || it.ProductionBoxID == nil {
			continue
		}
		box, ok := r.boxes.boxes[*it.ProductionBoxID]
		if ok && box.Open() {
			n++
		}
	}
	return n, nil
}

func (r *stubStockItemRepo) NextSerial(_ context.Context) (int, error) {
	return len(r.order) + 1, nil
}

func (r *stubStockItemRepo) DB() *gorm.DB { return nil }

var _ repository.StockItemRepository = (*stubStockItemRepo)(nil)

// stubBuildRepo stores builds in insertion order; listings return newest
// first like the real repository.
type stubBuildRepo struct {
	builds     []*model.BuildRecord
	components *stubComponentRepo
}

func (r *stubBuildRepo) CreateTx(_ *gorm.DB, build *model.BuildRecord) error {
	if build.ID == uuid.Nil {
		build.ID = uuid.New()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(len(r.builds)) * time.Minute)
	}
	for i := range build.Lines {
		if build.Lines[i].ID == uuid.Nil {
			build.Lines[i].ID = uuid.New()
		}
		build.Lines[i].BuildID = build.ID
	}
	r.builds = append(r.builds, build)
	return nil
}

func (r *stubBuildRepo) preload(b *model.BuildRecord) model.BuildRecord {
	out := *b
	out.Component = r.components.components[b.ComponentID]
	out.Lines = make([]model.BuildLine, len(b.Lines))
	for i, line := range b.Lines {
		line.Component = r.components.components[line.ComponentID]
		out.Lines[i] = line
	}
	return out
}

func (r *stubBuildRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BuildRecord, error) {
	for _, b := range r.builds {
		if b.ID == id {
			loaded := r.preload(b)
			return &loaded, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubBuildRepo) ListByComponents(_ context.Context, componentIDs []uuid.UUID) ([]model.BuildRecord, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range componentIDs {
		wanted[id] = true
	}
	var out []model.BuildRecord
	for i := len(r.builds) - 1; i >= 0; i-- {
		if wanted[r.builds[i].ComponentID] {
			out = append(out, r.preload(r.builds[i]))
		}
	}
	return out, nil
}

func (r *stubBuildRepo) DB() *gorm.DB { return nil }

var _ repository.BuildRepository = (*stubBuildRepo)(nil)

// stubAuditRepo appends events with strictly increasing timestamps so the
// ordering contract holds.
type stubAuditRepo struct {
	events []*model.AuditEvent
}

func (r *stubAuditRepo) CreateTx(_ *gorm.DB, ev *model.AuditEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(len(r.events)) * time.Second)
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *stubAuditRepo) ListByCodes(_ context.Context, codes []string) ([]model.AuditEvent, error) {
	wanted := map[string]bool{}
	for _, c := range codes {
		wanted[c] = true
	}
	var out []model.AuditEvent
	for _, ev := range r.events {
		if wanted[ev.Code] {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (r *stubAuditRepo) ListByCodesDesc(ctx context.Context, codes []string) ([]model.AuditEvent, error) {
	asc, err := r.ListByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(asc)-1; i < j; i, j = i+1, j-1 {
		asc[i], asc[j] = asc[j], asc[i]
	}
	return asc, nil
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

// stubDocumentRepo stores documents in memory.
type stubDocumentRepo struct {
	docs []*model.Document
}

func (r *stubDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *stubDocumentRepo) ListByOwner(_ context.Context, ownerType string, ownerID uuid.UUID) ([]model.Document, error) {
	var out []model.Document
	for _, d := range r.docs {
		if d.OwnerType == ownerType && d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDocumentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	for _, d := range r.docs {
		if d.ID == id {
			d.Status = status
			return nil
		}
	}
	return errors.New("not found")
}

var _ repository.DocumentRepository = (*stubDocumentRepo)(nil)

// stubReservationRepo stores reservations in memory.
type stubReservationRepo struct {
	reservations map[uuid.UUID]*model.Reservation
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{reservations: make(map[uuid.UUID]*model.Reservation)}
}

func (r *stubReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.reservations[res.ID] = res
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return res, nil
}

func (r *stubReservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	res, ok := r.reservations[id]
	if !ok {
		return errors.New("not found")
	}
	res.Status = status
	return nil
}

var _ repository.ReservationRepository = (*stubReservationRepo)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

// fixture wires the full service graph against the in-memory stubs. The nil
// *gorm.DB from the stubs makes every transaction run inline.
type fixture struct {
	components *stubComponentRepo
	bom        *stubBOMRepo
	boxes      *stubBoxRepo
	stockItems *stubStockItemRepo
	builds     *stubBuildRepo
	audit      *stubAuditRepo
	documents  *stubDocumentRepo

	identity    service.IdentityService
	ledger      service.LedgerService
	explosion   service.ExplosionService
	association service.AssociationService
	build       service.BuildService
	history     service.HistoryService
}

func newFixture() *fixture {
	components := newStubComponentRepo()
	bom := &stubBOMRepo{components: components}
	boxes := newStubBoxRepo()
	stockItems := newStubStockItemRepo(components, boxes)
	builds := &stubBuildRepo{components: components}
	audit := &stubAuditRepo{}
	documents := &stubDocumentRepo{}

	identity := service.NewIdentityService(components)
	ledger := service.NewLedgerService(components, identity)
	explosion := service.NewExplosionService(components, bom, stockItems, identity, ledger)
	association := service.NewAssociationService(stockItems, audit, identity)
	build := service.NewBuildService(components, bom, stockItems, boxes, builds,
		documents, audit, ledger, association, identity, nil)
	history := service.NewHistoryService(components, bom, stockItems, builds,
		audit, documents, identity, association)

	return &fixture{
		components:  components,
		bom:         bom,
		boxes:       boxes,
		stockItems:  stockItems,
		builds:      builds,
		audit:       audit,
		documents:   documents,
		identity:    identity,
		ledger:      ledger,
		explosion:   explosion,
		association: association,
		build:       build,
		history:     history,
	}
}

func (f *fixture) seedComponent(name string, qty int64, mutate ...func(*model.Component)) *model.Component {
	c := &model.Component{
		ID:              uuid.New(),
		Name:            name,
		IsPart:          true,
		QuantityInStock: decimal.NewFromInt(qty),
	}
	for _, m := range mutate {
		m(c)
	}
	_ = f.components.Create(context.Background(), c)
	return c
}

func (f *fixture) seedBOMLine(parent, child *model.Component, qty int64) {
	_ = f.bom.Create(context.Background(), &model.BOMLine{
		ParentID: parent.ID,
		ChildID:  child.ID,
		Quantity: decimal.NewFromInt(qty),
	})
}
