package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"
	"stocktrace/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationSvc(f *fixture) (service.ReservationService, repository.ReservationRepository) {
	reservations := newStubReservationRepo()
	svc := service.NewReservationService(f.components, reservations, f.boxes,
		f.stockItems, f.audit, f.identity)
	return svc, reservations
}

func newLoadSvc(f *fixture) service.LoadService {
	return service.NewLoadService(f.components, f.boxes, f.stockItems, f.audit, f.ledger)
}

func TestCreateReservation_AssemblyGetsOneBoxPerUnit(t *testing.T) {
	f := newFixture()
	svc, _ := newReservationSvc(f)

	master := &model.ComponentMaster{ID: uuid.New(), Code: "DRIVE-01"}
	require.NoError(t, f.components.CreateMaster(context.Background(), master))
	drive := f.seedComponent("Drive Unit", 0, func(c *model.Component) {
		c.IsAssembly = true
		c.MasterID = &master.ID
		c.Master = master
	})

	resp, err := svc.CreateReservation(context.Background(), dto.ReservationRequest{
		ComponentID: drive.ID.String(),
		Qty:         3,
	})
	require.NoError(t, err)
	require.Len(t, resp.Boxes, 3)
	for _, box := range resp.Boxes {
		require.Len(t, box.Items, 1)
		assert.Equal(t, model.TypeAssembly, box.BoxType)
		assert.Equal(t, model.StockReserved, box.Items[0].Status)
		assert.True(t, strings.HasPrefix(box.Items[0].Code, "DMV1|P=DRIVE-01|S="))
		assert.True(t, strings.HasSuffix(box.Items[0].Code, "|T=ASSEMBLY"))
	}

	// Each assembly instance carries its own serial.
	codes := map[string]bool{}
	for _, box := range resp.Boxes {
		codes[box.Items[0].Code] = true
	}
	assert.Len(t, codes, 3)
}

func TestCreateReservation_SellableAssemblyIsProductTyped(t *testing.T) {
	f := newFixture()
	svc, _ := newReservationSvc(f)

	station := f.seedComponent("Pump Station", 0, func(c *model.Component) {
		c.IsAssembly = true
		c.Sellable = true
	})

	resp, err := svc.CreateReservation(context.Background(), dto.ReservationRequest{
		ComponentID: station.ID.String(),
		Qty:         1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Boxes, 1)
	assert.Equal(t, model.TypeProduct, resp.Boxes[0].BoxType)
}

func TestCreateReservation_PartsShareOneBox(t *testing.T) {
	f := newFixture()
	svc, _ := newReservationSvc(f)
	rotor := f.seedComponent("Rotor", 0)

	resp, err := svc.CreateReservation(context.Background(), dto.ReservationRequest{
		ComponentID: rotor.ID.String(),
		Qty:         4,
	})
	require.NoError(t, err)
	require.Len(t, resp.Boxes, 1)
	assert.Len(t, resp.Boxes[0].Items, 4)
}

func TestCreateReservation_LotManagedSharesOneCodePerBox(t *testing.T) {
	f := newFixture()
	svc, _ := newReservationSvc(f)

	master := &model.ComponentMaster{ID: uuid.New(), Code: "SEAL-V", LotManaged: true}
	require.NoError(t, f.components.CreateMaster(context.Background(), master))
	seal := f.seedComponent("Seal", 0, func(c *model.Component) {
		c.MasterID = &master.ID
		c.Master = master
	})

	resp, err := svc.CreateReservation(context.Background(), dto.ReservationRequest{
		ComponentID: seal.ID.String(),
		Qty:         5,
	})
	require.NoError(t, err)
	require.Len(t, resp.Boxes, 1)
	require.Len(t, resp.Boxes[0].Items, 5)
	for _, item := range resp.Boxes[0].Items {
		assert.Equal(t, resp.Boxes[0].Items[0].Code, item.Code)
	}
}

func TestLoadBox_WholeBoxLoadsItemsAndCreditsStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reservations, _ := newReservationSvc(f)
	loads := newLoadSvc(f)

	rotor := f.seedComponent("Rotor", 2)
	resp, err := reservations.CreateReservation(ctx, dto.ReservationRequest{
		ComponentID: rotor.ID.String(),
		Qty:         3,
	})
	require.NoError(t, err)
	boxID := uuid.MustParse(resp.Boxes[0].ID)

	loaded, err := loads.LoadBox(ctx, boxID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Loaded)
	assert.Equal(t, model.BoxCompleted, loaded.BoxStatus)

	// 2 on hand + 3 loaded.
	assert.Equal(t, "5", f.components.components[rotor.ID].QuantityInStock.String())
	for _, item := range resp.Boxes[0].Items {
		stored, err := f.stockItems.FindByID(ctx, uuid.MustParse(item.ID))
		require.NoError(t, err)
		assert.Equal(t, model.StockLoaded, stored.Status)
	}

	// One LOAD event per instance.
	events, err := f.audit.ListByCodes(ctx, []string{resp.Boxes[0].Items[0].Code})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, model.ActionLoad, events[0].Action)
}

func TestLoadBox_SingleItemLeavesBoxLoading(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reservations, _ := newReservationSvc(f)
	loads := newLoadSvc(f)

	rotor := f.seedComponent("Rotor", 0)
	resp, err := reservations.CreateReservation(ctx, dto.ReservationRequest{
		ComponentID: rotor.ID.String(),
		Qty:         2,
	})
	require.NoError(t, err)
	boxID := uuid.MustParse(resp.Boxes[0].ID)
	itemID := uuid.MustParse(resp.Boxes[0].Items[0].ID)

	loaded, err := loads.LoadBox(ctx, boxID, &itemID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Loaded)
	assert.Equal(t, model.BoxLoading, loaded.BoxStatus)
	assert.Equal(t, "1", f.components.components[rotor.ID].QuantityInStock.String())

	// Loading the rest completes the box.
	loaded, err = loads.LoadBox(ctx, boxID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Loaded)
	assert.Equal(t, model.BoxCompleted, loaded.BoxStatus)
}

func TestLoadBox_CompletedBoxRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	loads := newLoadSvc(f)

	box := &model.ProductionBox{Code: "BOX-2026-00007", BoxType: model.TypePart, Status: model.BoxCompleted}
	require.NoError(t, f.boxes.Create(ctx, box))

	_, err := loads.LoadBox(ctx, box.ID, nil, nil)
	assert.ErrorContains(t, err, "cannot be loaded")
}

func TestManualIntake_AppliesPositiveDeltaWithAuditTrail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	loads := newLoadSvc(f)

	rotor := f.seedComponent("Rotor", 3)
	resp, err := loads.ManualIntake(ctx, rotor.ID, decimal.NewFromInt(7), nil)
	require.NoError(t, err)
	assert.Equal(t, "10", resp.OnHand.String())
	assert.Equal(t, "10", f.components.components[rotor.ID].QuantityInStock.String())

	events, err := f.audit.ListByCodes(ctx, []string{"P=Rotor|T=PART"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActionLoad, events[0].Action)
}

func TestManualIntake_RejectsNonPositive(t *testing.T) {
	f := newFixture()
	loads := newLoadSvc(f)
	rotor := f.seedComponent("Rotor", 3)

	_, err := loads.ManualIntake(context.Background(), rotor.ID, decimal.Zero, nil)
	assert.ErrorContains(t, err, "must be positive")
}

func TestResolveCode_ReturnsItemBoxAndEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reservations, _ := newReservationSvc(f)
	loads := newLoadSvc(f)

	rotor := f.seedComponent("Rotor", 0)
	resp, err := reservations.CreateReservation(ctx, dto.ReservationRequest{
		ComponentID: rotor.ID.String(),
		Qty:         1,
	})
	require.NoError(t, err)
	boxID := uuid.MustParse(resp.Boxes[0].ID)
	_, err = loads.LoadBox(ctx, boxID, nil, nil)
	require.NoError(t, err)

	code := resp.Boxes[0].Items[0].Code
	resolution, err := reservations.ResolveCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, code, resolution.Item.Code)
	assert.Equal(t, "Rotor", resolution.ComponentName)
	assert.Equal(t, resp.ID, resolution.ReservationID)
	require.NotNil(t, resolution.Box)
	assert.Equal(t, resp.Boxes[0].Code, resolution.Box.Code)
	require.Len(t, resolution.Events, 1)
	assert.Equal(t, model.ActionLoad, resolution.Events[0].Action)
}

func TestResolveCode_EventTimestampsRenderAsUTC(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reservations, _ := newReservationSvc(f)

	rotor := f.seedComponent("Rotor", 0)
	code := "DMV1|P=ROTOR|S=AA0001|T=PART"
	seedInstance(f, rotor, code, model.StockLoaded)

	// Stored in a non-UTC zone, as a driver in a local-zone process yields.
	cet := time.FixedZone("CET", 3600)
	require.NoError(t, f.audit.CreateTx(nil, &model.AuditEvent{
		Code:      code,
		Action:    model.ActionLoad,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, cet),
	}))

	resolution, err := reservations.ResolveCode(ctx, code)
	require.NoError(t, err)
	require.Len(t, resolution.Events, 1)
	assert.Equal(t, "2026-03-01T11:00:00Z", resolution.Events[0].CreatedAt)
}
