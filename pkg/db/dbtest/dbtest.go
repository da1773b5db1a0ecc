// Package dbtest opens in-memory sqlite databases carrying the host DCIM tables
// and the module-swap tables, for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/module-swap/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE dcim_device (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL
);`,
	`CREATE TABLE dcim_modulebay (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  device_id INTEGER NOT NULL REFERENCES dcim_device(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position TEXT
);`,
	`CREATE TABLE dcim_module (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  device_id INTEGER REFERENCES dcim_device(id) ON DELETE CASCADE,
  module_bay_id INTEGER UNIQUE REFERENCES dcim_modulebay(id) ON DELETE SET NULL,
  serial TEXT,
  asset_tag TEXT
);`,
	`CREATE TABLE dcim_inventoryitem (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  device_id INTEGER REFERENCES dcim_device(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  serial TEXT
);`,
	`CREATE TABLE module_swap_moduleinventorylink (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  module_id INTEGER NOT NULL REFERENCES dcim_module(id) ON DELETE CASCADE,
  inventory_item_id INTEGER NOT NULL REFERENCES dcim_inventoryitem(id) ON DELETE CASCADE,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT module_swap_link_module_id_key UNIQUE (module_id),
  CONSTRAINT module_swap_link_inventory_item_id_key UNIQUE (inventory_item_id)
);`,
	`CREATE TABLE module_swap_relocation (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  module_id INTEGER NOT NULL,
  from_device_id INTEGER,
  from_module_bay_id INTEGER,
  to_device_id INTEGER NOT NULL,
  to_module_bay_id INTEGER NOT NULL,
  inventory_item_id INTEGER,
  actor_id TEXT,
  created_at DATETIME
);`,
}

// Open returns a private in-memory database with foreign keys enforced.
// A single pooled connection keeps the memory database alive for the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// Fixture seeds host records with terse helpers.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) Device(name string) models.Device {
	f.t.Helper()
	device := models.Device{Name: name}
	if err := f.db.Create(&device).Error; err != nil {
		f.t.Fatalf("create device: %v", err)
	}
	return device
}

func (f *Fixture) Bay(device models.Device, name string) models.ModuleBay {
	f.t.Helper()
	bay := models.ModuleBay{DeviceID: device.ID, Name: name, Position: name}
	if err := f.db.Create(&bay).Error; err != nil {
		f.t.Fatalf("create module bay: %v", err)
	}
	return bay
}

// Module creates a module installed in bay, or an unassigned module when bay is nil.
func (f *Fixture) Module(serial string, bay *models.ModuleBay) models.Module {
	f.t.Helper()
	module := models.Module{Serial: serial}
	if bay != nil {
		module.PlaceInBay(*bay)
	}
	if err := f.db.Create(&module).Error; err != nil {
		f.t.Fatalf("create module: %v", err)
	}
	return module
}

func (f *Fixture) InventoryItem(name string, device *models.Device) models.InventoryItem {
	f.t.Helper()
	item := models.InventoryItem{Name: name, Serial: name}
	if device != nil {
		id := device.ID
		item.DeviceID = &id
	}
	if err := f.db.Create(&item).Error; err != nil {
		f.t.Fatalf("create inventory item: %v", err)
	}
	return item
}

func (f *Fixture) Link(module models.Module, item models.InventoryItem) models.ModuleInventoryLink {
	f.t.Helper()
	link := models.ModuleInventoryLink{ModuleID: module.ID, InventoryItemID: item.ID}
	if err := f.db.Create(&link).Error; err != nil {
		f.t.Fatalf("create link: %v", err)
	}
	return link
}

// Reload refreshes dest (a pointer to a model with an ID) from the database.
func (f *Fixture) Reload(dest any, id int64) {
	f.t.Helper()
	if err := f.db.First(dest, id).Error; err != nil {
		f.t.Fatalf("reload %T %d: %v", dest, id, err)
	}
}
