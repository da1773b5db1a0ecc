package dcim

import (
	"context"
	"testing"

	"github.com/angelmondragon/module-swap/pkg/db/dbtest"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDevicesWithFreeBay(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	full := fx.Device("full")
	fullBay := fx.Bay(full, "slot-1")
	fx.Module("FULL-1", &fullBay)

	partial := fx.Device("partial")
	partialBay := fx.Bay(partial, "slot-1")
	fx.Bay(partial, "slot-2")
	fx.Module("PART-1", &partialBay)

	fx.Device("no-bays")

	devices, err := repo.DevicesWithFreeBay(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, partial.ID, devices[0].ID)

	ok, err := repo.DeviceHasFreeBay(ctx, partial.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeviceHasFreeBay(ctx, full.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDevicesWithFreeBayRecomputedAfterPlacement(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	device := fx.Device("edge-1")
	bay := fx.Bay(device, "slot-1")

	devices, err := repo.DevicesWithFreeBay(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	fx.Module("M-1", &bay)

	devices, err = repo.DevicesWithFreeBay(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestListBaysReportsOccupancy(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)

	device := fx.Device("edge-1")
	taken := fx.Bay(device, "slot-1")
	free := fx.Bay(device, "slot-2")
	module := fx.Module("M-1", &taken)

	slots, err := repo.ListBays(context.Background(), device.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, taken.ID, slots[0].ID)
	require.True(t, slots[0].Occupied())
	assert.Equal(t, module.ID, *slots[0].OccupantModuleID)
	assert.Equal(t, free.ID, slots[1].ID)
	assert.False(t, slots[1].Occupied())
}

func TestFindBayOccupant(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	device := fx.Device("edge-1")
	taken := fx.Bay(device, "slot-1")
	free := fx.Bay(device, "slot-2")
	module := fx.Module("M-1", &taken)

	occupant, err := repo.FindBayOccupant(ctx, taken.ID)
	require.NoError(t, err)
	require.NotNil(t, occupant)
	assert.Equal(t, module.ID, occupant.ID)

	occupant, err = repo.FindBayOccupant(ctx, free.ID)
	require.NoError(t, err)
	assert.Nil(t, occupant)
}

func TestVacateAndSaveModuleInTransaction(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	base := NewRepository(db)
	ctx := context.Background()

	src := fx.Device("src")
	dst := fx.Device("dst")
	srcBay := fx.Bay(src, "slot-1")
	dstBay := fx.Bay(dst, "slot-1")
	module := fx.Module("M-1", &srcBay)
	item := fx.InventoryItem("card", &src)

	err := db.Transaction(func(tx *gorm.DB) error {
		repo := base.WithTx(tx)
		if err := repo.VacateBay(ctx, module.ID); err != nil {
			return err
		}
		loaded, err := repo.FindModule(ctx, module.ID)
		if err != nil {
			return err
		}
		loaded.PlaceInBay(dstBay)
		if err := repo.SaveModule(ctx, loaded); err != nil {
			return err
		}
		return repo.SetInventoryItemDevice(ctx, item.ID, dst.ID)
	})
	require.NoError(t, err)

	var moved models.Module
	fx.Reload(&moved, module.ID)
	require.NotNil(t, moved.ModuleBayID)
	assert.Equal(t, dstBay.ID, *moved.ModuleBayID)
	assert.Equal(t, dst.ID, *moved.DeviceID)

	var movedItem models.InventoryItem
	fx.Reload(&movedItem, item.ID)
	assert.Equal(t, dst.ID, *movedItem.DeviceID)

	occupant, err := base.FindBayOccupant(ctx, srcBay.ID)
	require.NoError(t, err)
	assert.Nil(t, occupant)
}

func TestSaveModuleRejectsDeviceMismatch(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)

	src := fx.Device("src")
	other := fx.Device("other")
	bay := fx.Bay(src, "slot-1")
	module := fx.Module("M-1", nil)

	bayID := bay.ID
	otherID := other.ID
	module.ModuleBayID = &bayID
	module.DeviceID = &otherID

	err := repo.SaveModule(context.Background(), &module)
	require.ErrorIs(t, err, models.ErrModuleDeviceMismatch)

	var stored models.Module
	fx.Reload(&stored, module.ID)
	assert.Nil(t, stored.ModuleBayID)
}

func TestFindMissingRecords(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.FindModule(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindDevice(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindModuleBay(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindInventoryItem(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
