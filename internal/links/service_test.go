package links

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/module-swap/internal/dcim"
	"github.com/angelmondragon/module-swap/pkg/db"
	"github.com/angelmondragon/module-swap/pkg/db/dbtest"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorderStub struct {
	writes map[string]int
}

func (r *recorderStub) IncLinkWrite(op, outcome string) {
	if r.writes == nil {
		r.writes = map[string]int{}
	}
	r.writes[op+":"+outcome]++
}

type linkEnv struct {
	db       *gorm.DB
	fx       *dbtest.Fixture
	svc      Service
	recorder *recorderStub
}

func newLinkEnv(t *testing.T) *linkEnv {
	t.Helper()
	conn := dbtest.Open(t)
	recorder := &recorderStub{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Hosts:   dcim.NewRepository(conn),
		Tx:      db.Wrap(conn),
		Metrics: recorder,
	})
	require.NoError(t, err)
	return &linkEnv{db: conn, fx: dbtest.NewFixture(t, conn), svc: svc, recorder: recorder}
}

func ids(module models.Module, item models.InventoryItem) LinkInput {
	moduleID, itemID := module.ID, item.ID
	return LinkInput{ModuleID: &moduleID, InventoryItemID: &itemID}
}

func (e *linkEnv) linkCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.ModuleInventoryLink{}).Count(&count).Error)
	return count
}

func TestCreateMovesItemToModuleDevice(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	rack := env.fx.Device("rack-1")
	spare := env.fx.Device("spares")
	bay := env.fx.Bay(rack, "slot-1")
	module := env.fx.Module("M-1", &bay)
	item := env.fx.InventoryItem("card-1", &spare)

	view, err := env.svc.Create(ctx, ids(module, item))
	require.NoError(t, err)
	assert.Equal(t, module.ID, view.ModuleID)
	assert.Equal(t, item.ID, view.InventoryItemID)
	assert.Equal(t, "M-1", view.ModuleName)

	var reloaded models.InventoryItem
	env.fx.Reload(&reloaded, item.ID)
	require.NotNil(t, reloaded.DeviceID)
	assert.Equal(t, rack.ID, *reloaded.DeviceID)
	assert.Equal(t, 1, env.recorder.writes["create:success"])
}

func TestCreateLeavesItemDeviceWhenModuleUnassigned(t *testing.T) {
	env := newLinkEnv(t)

	spare := env.fx.Device("spares")
	module := env.fx.Module("M-1", nil)
	item := env.fx.InventoryItem("card-1", &spare)

	_, err := env.svc.Create(context.Background(), ids(module, item))
	require.NoError(t, err)

	var reloaded models.InventoryItem
	env.fx.Reload(&reloaded, item.ID)
	assert.Equal(t, spare.ID, *reloaded.DeviceID)
}

func TestCreateRejectsLinkedModuleWithoutChanges(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	rack := env.fx.Device("rack-1")
	spare := env.fx.Device("spares")
	bay := env.fx.Bay(rack, "slot-1")
	module := env.fx.Module("M-1", &bay)
	linked := env.fx.InventoryItem("card-1", &rack)
	env.fx.Link(module, linked)
	fresh := env.fx.InventoryItem("card-2", &spare)

	_, err := env.svc.Create(ctx, ids(module, fresh))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{FieldModule: msgModuleLinked}, pkgerrors.Fields(err))

	assert.Equal(t, int64(1), env.linkCount(t))
	var reloaded models.InventoryItem
	env.fx.Reload(&reloaded, fresh.ID)
	assert.Equal(t, spare.ID, *reloaded.DeviceID)
	assert.Equal(t, 1, env.recorder.writes["create:failure"])
}

func TestCreateReportsBothConflicts(t *testing.T) {
	env := newLinkEnv(t)

	moduleA := env.fx.Module("A", nil)
	moduleB := env.fx.Module("B", nil)
	itemA := env.fx.InventoryItem("a", nil)
	itemB := env.fx.InventoryItem("b", nil)
	env.fx.Link(moduleA, itemA)
	env.fx.Link(moduleB, itemB)

	_, err := env.svc.Create(context.Background(), ids(moduleA, itemB))
	require.Error(t, err)
	assert.Equal(t, map[string]string{
		FieldModule:        msgModuleLinked,
		FieldInventoryItem: msgInventoryItemLinked,
	}, pkgerrors.Fields(err))
	assert.Equal(t, int64(2), env.linkCount(t))
}

func TestCreateRequiresExistingEnds(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, LinkInput{})
	require.Error(t, err)
	assert.Equal(t, map[string]string{FieldModule: msgRequired, FieldInventoryItem: msgRequired}, pkgerrors.Fields(err))

	missing := int64(404)
	item := env.fx.InventoryItem("card", nil)
	itemID := item.ID
	_, err = env.svc.Create(ctx, LinkInput{ModuleID: &missing, InventoryItemID: &itemID})
	require.Error(t, err)
	assert.Equal(t, map[string]string{FieldModule: msgInvalidChoice}, pkgerrors.Fields(err))
	assert.Zero(t, env.linkCount(t))
}

func TestUpdateKeepsOwnLinkAndSyncsDevice(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	rack := env.fx.Device("rack-1")
	bay := env.fx.Bay(rack, "slot-1")
	module := env.fx.Module("M-1", &bay)
	item := env.fx.InventoryItem("card-1", nil)
	other := env.fx.InventoryItem("card-2", nil)
	link := env.fx.Link(module, item)

	view, err := env.svc.Update(ctx, link.ID, ids(module, item))
	require.NoError(t, err)
	assert.Equal(t, link.ID, view.ID)

	view, err = env.svc.Update(ctx, link.ID, ids(module, other))
	require.NoError(t, err)
	assert.Equal(t, other.ID, view.InventoryItemID)

	var reloaded models.InventoryItem
	env.fx.Reload(&reloaded, other.ID)
	require.NotNil(t, reloaded.DeviceID)
	assert.Equal(t, rack.ID, *reloaded.DeviceID)
	assert.Equal(t, 2, env.recorder.writes["update:success"])
}

func TestUpdateRejectsItemLinkedElsewhere(t *testing.T) {
	env := newLinkEnv(t)

	moduleA := env.fx.Module("A", nil)
	moduleB := env.fx.Module("B", nil)
	itemA := env.fx.InventoryItem("a", nil)
	itemB := env.fx.InventoryItem("b", nil)
	linkA := env.fx.Link(moduleA, itemA)
	env.fx.Link(moduleB, itemB)

	_, err := env.svc.Update(context.Background(), linkA.ID, ids(moduleA, itemB))
	require.Error(t, err)
	assert.Equal(t, map[string]string{FieldInventoryItem: msgInventoryItemLinked}, pkgerrors.Fields(err))

	var stored models.ModuleInventoryLink
	env.fx.Reload(&stored, linkA.ID)
	assert.Equal(t, itemA.ID, stored.InventoryItemID)
}

func TestUpdateMissingLink(t *testing.T) {
	env := newLinkEnv(t)
	module := env.fx.Module("A", nil)
	item := env.fx.InventoryItem("a", nil)

	_, err := env.svc.Update(context.Background(), 999, ids(module, item))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetAndDeleteNotFound(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	_, err := env.svc.Get(ctx, 1)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = env.svc.Delete(ctx, 1)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteRemovesLinkOnly(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	module := env.fx.Module("A", nil)
	item := env.fx.InventoryItem("a", nil)
	link := env.fx.Link(module, item)

	require.NoError(t, env.svc.Delete(ctx, link.ID))
	assert.Zero(t, env.linkCount(t))

	var stillThere models.Module
	env.fx.Reload(&stillThere, module.ID)
	assert.Equal(t, 1, env.recorder.writes["delete:success"])
}

func TestFormListsChoicesAndCurrentLink(t *testing.T) {
	env := newLinkEnv(t)
	ctx := context.Background()

	module := env.fx.Module("M-1", nil)
	env.fx.Module("M-2", nil)
	item := env.fx.InventoryItem("card", nil)
	link := env.fx.Link(module, item)

	form, err := env.svc.Form(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, form.Link)
	assert.Len(t, form.Modules, 2)
	assert.Equal(t, []Choice{{ID: item.ID, Label: "card"}}, form.InventoryItems)

	form, err = env.svc.Form(ctx, &link.ID)
	require.NoError(t, err)
	require.NotNil(t, form.Link)
	assert.Equal(t, link.ID, form.Link.ID)

	missing := int64(77)
	_, err = env.svc.Form(ctx, &missing)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListRejectsBadCursor(t *testing.T) {
	env := newLinkEnv(t)

	_, err := env.svc.List(context.Background(), pagination.Params{Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUniqueViolationFields(t *testing.T) {
	sqliteItem := errors.New("UNIQUE constraint failed: module_swap_moduleinventorylink.inventory_item_id")
	assert.Equal(t, map[string]string{FieldInventoryItem: msgInventoryItemLinked}, pkgerrors.Fields(uniqueViolationFields(sqliteItem)))

	pgModule := errors.New(`ERROR: duplicate key value violates unique constraint "module_swap_link_module_id_key" (SQLSTATE 23505)`)
	assert.Equal(t, map[string]string{FieldModule: msgModuleLinked}, pkgerrors.Fields(uniqueViolationFields(pgModule)))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
