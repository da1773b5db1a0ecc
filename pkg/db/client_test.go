package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/module-swap/pkg/config"
	"github.com/angelmondragon/module-swap/pkg/db"
	"github.com/angelmondragon/module-swap/pkg/db/dbtest"
	"github.com/angelmondragon/module-swap/pkg/db/models"
)

func countDevices(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.Device{}).Count(&count).Error)
	return count
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := dbtest.Open(t)
	client := db.Wrap(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Device{Name: "committed"}).Error
	}))
	assert.Equal(t, int64(1), countDevices(t, conn))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Device{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), countDevices(t, conn))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := dbtest.Open(t)
	client := db.Wrap(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&models.Device{Name: "lost"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Equal(t, int64(0), countDevices(t, conn))
}

func TestPing(t *testing.T) {
	client := db.Wrap(dbtest.Open(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewWithSQLite(t *testing.T) {
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := db.New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := fmt.Errorf("insert link: %w", &pgconn.PgError{Code: "23505", ConstraintName: "module_swap_link_inventory_item_id_key"})
	assert.True(t, db.IsUniqueViolation(pgxErr, ""))
	assert.True(t, db.IsUniqueViolation(pgxErr, "inventory_item_id"))
	assert.False(t, db.IsUniqueViolation(pgxErr, "module_id_key"))

	pqErr := &pq.Error{Code: "23505", Constraint: "module_swap_link_module_id_key"}
	assert.True(t, db.IsUniqueViolation(pqErr, "module_id"))

	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "module_swap_link_module_fk"}
	assert.False(t, db.IsUniqueViolation(fkErr, ""))

	sqliteErr := errors.New("UNIQUE constraint failed: module_swap_moduleinventorylink.module_id")
	assert.True(t, db.IsUniqueViolation(sqliteErr, "module_id"))
	assert.False(t, db.IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, db.IsUniqueViolation(nil, ""))
}

func TestUniqueConstraintsEnforcedBySchema(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.NewFixture(t, conn)
	device := fx.Device("edge-1")
	module := fx.Module("SN-1", nil)
	first := fx.InventoryItem("psu-a", &device)
	second := fx.InventoryItem("psu-b", &device)
	fx.Link(module, first)

	err := conn.Create(&models.ModuleInventoryLink{ModuleID: module.ID, InventoryItemID: second.ID}).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "module_id"))
}
