package links

import (
	"context"
	"testing"

	"github.com/angelmondragon/module-swap/pkg/db/dbtest"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryFindByEnds(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	module := fx.Module("M-1", nil)
	item := fx.InventoryItem("card-1", nil)
	link := fx.Link(module, item)

	byModule, err := repo.FindByModule(ctx, module.ID)
	require.NoError(t, err)
	require.NotNil(t, byModule)
	assert.Equal(t, link.ID, byModule.ID)

	byItem, err := repo.FindByInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, byItem)
	assert.Equal(t, link.ID, byItem.ID)

	none, err := repo.FindByModule(ctx, module.ID+100)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepositoryEnforcesUniqueEnds(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	module := fx.Module("M-1", nil)
	other := fx.Module("M-2", nil)
	item := fx.InventoryItem("card-1", nil)
	fx.Link(module, item)

	err := repo.Create(ctx, &models.ModuleInventoryLink{ModuleID: other.ID, InventoryItemID: item.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
	assert.Contains(t, err.Error(), "inventory_item_id")
}

func TestRepositoryCascadesOnModuleDelete(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	module := fx.Module("M-1", nil)
	item := fx.InventoryItem("card-1", nil)
	link := fx.Link(module, item)

	require.NoError(t, db.Delete(&models.Module{}, module.ID).Error)

	_, err := repo.FindByID(ctx, link.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindViewAndDelete(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	module := fx.Module("", nil)
	item := fx.InventoryItem("psu", nil)
	link := fx.Link(module, item)

	view, err := repo.FindView(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "psu", view.InventoryItemName)
	assert.Equal(t, models.Module{ID: module.ID}.Label(), view.ModuleName)

	deleted, err := repo.Delete(ctx, link.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, link.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.FindView(ctx, link.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := dbtest.Open(t)
	fx := dbtest.NewFixture(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		link := fx.Link(fx.Module("M-"+name, nil), fx.InventoryItem("item-"+name, nil))
		ids = append(ids, link.ID)
	}

	first, err := repo.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Links, 2)
	assert.Equal(t, ids[0], first.Links[0].ID)
	assert.Equal(t, "M-a", first.Links[0].ModuleName)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Links, 1)
	assert.Equal(t, ids[2], second.Links[0].ID)
	assert.Empty(t, second.NextCursor)
}
