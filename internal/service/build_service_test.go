package service_test

import (
	"context"
	"testing"

	"stocktrace/internal/dto"
	"stocktrace/internal/model"
	"stocktrace/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptBuild_DecrementsChildrenAndCreditsComposite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 10)
	f.seedBOMLine(y, x, 2)

	resp, err := f.build.AttemptBuild(ctx, dto.BuildRequest{ComponentID: y.ID.String(), Qty: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, dto.BuildCompleted, resp.Status)
	assert.Equal(t, 1, resp.Qty)

	assert.Equal(t, "8", f.components.components[x.ID].QuantityInStock.String())
	assert.Equal(t, "1", f.components.components[y.ID].QuantityInStock.String())

	// One build record with the per-unit line quantities frozen.
	require.Len(t, f.builds.builds, 1)
	require.Len(t, f.builds.builds[0].Lines, 1)
	assert.Equal(t, "2", f.builds.builds[0].Lines[0].Quantity.String())

	// Buildable drops by exactly the built quantity.
	n, err := f.explosion.BuildableUnits(ctx, y.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestAttemptBuild_InsufficientStockRejectsWithoutMutation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 10)
	f.seedBOMLine(y, x, 2)

	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{ComponentID: y.ID.String(), Qty: 6}, nil)

	var insufficient *service.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortfalls, 1)
	assert.Equal(t, "Gear", insufficient.Shortfalls[0].Name)
	assert.Equal(t, "12", insufficient.Shortfalls[0].Required.String())
	assert.Equal(t, "10", insufficient.Shortfalls[0].OnHand.String())

	// Nothing moved.
	assert.Equal(t, "10", f.components.components[x.ID].QuantityInStock.String())
	assert.True(t, f.components.components[y.ID].QuantityInStock.IsZero())
	assert.Empty(t, f.builds.builds)
}

func TestAttemptBuild_SufficiencyUsesDuplicateAwareMax(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 1)
	f.seedComponent("gear", 4) // drifted duplicate holds the real count
	f.seedBOMLine(y, x, 2)

	// Naive read of x would reject (1 < 4 required); the reconciled max
	// (4) passes for qty 2.
	resp, err := f.build.AttemptBuild(ctx, dto.BuildRequest{ComponentID: y.ID.String(), Qty: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, dto.BuildCompleted, resp.Status)
	assert.True(t, f.components.components[x.ID].QuantityInStock.IsZero())
}

func TestAttemptBuild_MissingDocumentRejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 10)
	f.seedBOMLine(y, x, 2)

	require.NoError(t, f.documents.Create(ctx, &model.Document{
		OwnerType: model.OwnerComponent,
		OwnerID:   y.ID,
		Category:  "test-report",
		Status:    model.DocRequired,
	}))

	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{ComponentID: y.ID.String(), Qty: 1}, nil)
	var missing *service.MissingDocumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"test-report"}, missing.Categories)
	assert.Equal(t, "10", f.components.components[x.ID].QuantityInStock.String())
}

func TestAttemptBuild_ProvidedDocumentSatisfiesRequirement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 10)
	f.seedBOMLine(y, x, 2)

	require.NoError(t, f.documents.Create(ctx, &model.Document{
		OwnerType: model.OwnerComponent,
		OwnerID:   y.ID,
		Category:  "test-report",
		Status:    model.DocRequired,
	}))

	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{
		ComponentID:       y.ID.String(),
		Qty:               1,
		ProvidedDocuments: []string{"test-report"},
	}, nil)
	require.NoError(t, err)
}

func TestAttemptBuild_UploadedDocumentSatisfiesRequirement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	y := f.seedComponent("Gearbox", 0, func(c *model.Component) { c.IsAssembly = true })
	x := f.seedComponent("Gear", 10)
	f.seedBOMLine(y, x, 2)

	require.NoError(t, f.documents.Create(ctx, &model.Document{
		OwnerType: model.OwnerComponent, OwnerID: y.ID,
		Category: "test-report", Status: model.DocRequired,
	}))
	require.NoError(t, f.documents.Create(ctx, &model.Document{
		OwnerType: model.OwnerComponent, OwnerID: y.ID,
		Category: "test-report", Status: model.DocUploaded, URL: "/files/tr.pdf",
	}))

	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{ComponentID: y.ID.String(), Qty: 1}, nil)
	require.NoError(t, err)
}

func TestAttemptBuild_NoBOMFails(t *testing.T) {
	f := newFixture()
	leaf := f.seedComponent("Washer", 50)

	_, err := f.build.AttemptBuild(context.Background(), dto.BuildRequest{ComponentID: leaf.ID.String(), Qty: 1}, nil)
	assert.ErrorContains(t, err, "no bill of materials")
}

// boxedBuild seeds a composite with one child, an open box containing the
// assembly instance, and enough child stock.
func boxedBuild(f *fixture, t *testing.T) (composite, child *model.Component, box *model.ProductionBox, assemblyCode string) {
	t.Helper()
	ctx := context.Background()

	composite = f.seedComponent("Drive Unit", 0, func(c *model.Component) { c.IsAssembly = true })
	child = f.seedComponent("Rotor", 10)
	f.seedBOMLine(composite, child, 1)

	box = &model.ProductionBox{Code: "BOX-2026-00009", BoxType: model.TypeAssembly, Status: model.BoxOpen}
	require.NoError(t, f.boxes.Create(ctx, box))

	assemblyCode = "DMV1|P=DRIVE-UNIT|S=AA0001|T=ASSEMBLY"
	require.NoError(t, f.stockItems.Create(ctx, &model.StockItem{
		ComponentID:     composite.ID,
		Code:            assemblyCode,
		Status:          model.StockInProduction,
		ProductionBoxID: &box.ID,
	}))
	return composite, child, box, assemblyCode
}

func TestAttemptBuild_ContainerRequiresAssociations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	composite, child, box, _ := boxedBuild(f, t)

	boxID := box.ID.String()
	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{
		ComponentID: composite.ID.String(),
		Qty:         1,
		BoxID:       &boxID,
	}, nil)

	var incomplete *service.AssociationIncompleteError
	require.ErrorAs(t, err, &incomplete)
	require.Len(t, incomplete.Shortfalls, 1)
	assert.Equal(t, child.Name, incomplete.Shortfalls[0].Name)
	assert.EqualValues(t, 1, incomplete.Shortfalls[0].Required)
	assert.EqualValues(t, 0, incomplete.Shortfalls[0].Associated)
}

func TestAttemptBuild_ContainerCompletesConsumedItemsAndBox(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	composite, child, box, assemblyCode := boxedBuild(f, t)

	childCode := "DMV1|P=ROTOR|S=AA0002|T=PART"
	require.NoError(t, f.stockItems.Create(ctx, &model.StockItem{
		ComponentID: child.ID,
		Code:        childCode,
		Status:      model.StockLoaded,
	}))
	require.NoError(t, f.association.Associate(ctx, childCode, assemblyCode, nil))

	boxID := box.ID.String()
	resp, err := f.build.AttemptBuild(ctx, dto.BuildRequest{
		ComponentID: composite.ID.String(),
		Qty:         1,
		BoxID:       &boxID,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, assemblyCode, resp.AssemblyCode)

	// Consumed child instance closed out, box completed, build linked.
	item, err := f.stockItems.FindByCode(ctx, childCode)
	require.NoError(t, err)
	assert.Equal(t, model.StockCompleted, item.Status)
	assert.Equal(t, model.BoxCompleted, f.boxes.boxes[box.ID].Status)

	require.Len(t, f.builds.builds, 1)
	b := f.builds.builds[0]
	require.NotNil(t, b.AssemblyCode)
	assert.Equal(t, assemblyCode, *b.AssemblyCode)

	// COMPLETE audit event frozen for the consumed instance.
	events, err := f.audit.ListByCodes(ctx, []string{childCode})
	require.NoError(t, err)
	var completed bool
	for _, ev := range events {
		if ev.Action == model.ActionComplete {
			completed = true
			assert.Equal(t, child.Name, ev.DecodeMeta().ComponentName)
			assert.Equal(t, b.ID.String(), ev.DecodeMeta().BuildID)
		}
	}
	assert.True(t, completed)
}

func TestAttemptBuild_ClosedBoxRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	composite, _, box, _ := boxedBuild(f, t)
	require.NoError(t, f.boxes.UpdateStatusTx(nil, box.ID, model.BoxCompleted))

	boxID := box.ID.String()
	_, err := f.build.AttemptBuild(ctx, dto.BuildRequest{
		ComponentID: composite.ID.String(),
		Qty:         1,
		BoxID:       &boxID,
	}, nil)
	assert.ErrorContains(t, err, "cannot accept a build")
}
