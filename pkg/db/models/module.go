package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrModuleDeviceMismatch is returned when a module is saved with a bay that belongs to another device.
var ErrModuleDeviceMismatch = errors.New("module device does not match the device of its bay")

// Module is a host hardware module. DeviceID must always equal the device of ModuleBayID.
type Module struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceID    *int64  `gorm:"column:device_id;index"`
	ModuleBayID *int64  `gorm:"column:module_bay_id;uniqueIndex"`
	Serial      string  `gorm:"column:serial"`
	AssetTag    *string `gorm:"column:asset_tag"`
}

func (Module) TableName() string { return "dcim_module" }

// PlaceInBay installs the module into bay and moves it onto the bay's device.
func (m *Module) PlaceInBay(bay ModuleBay) {
	bayID := bay.ID
	deviceID := bay.DeviceID
	m.ModuleBayID = &bayID
	m.DeviceID = &deviceID
}

// BeforeSave runs for every create and save of a module.
func (m *Module) BeforeSave(tx *gorm.DB) error {
	if m.ModuleBayID == nil {
		return nil
	}
	var bay ModuleBay
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "device_id").
		Where("id = ?", *m.ModuleBayID).
		First(&bay).Error
	if err != nil {
		return fmt.Errorf("load module bay %d: %w", *m.ModuleBayID, err)
	}
	if m.DeviceID == nil || *m.DeviceID != bay.DeviceID {
		return ErrModuleDeviceMismatch
	}
	return nil
}

// Label is the display name used in choice lists.
func (m Module) Label() string {
	if m.Serial != "" {
		return m.Serial
	}
	return fmt.Sprintf("Module %d", m.ID)
}
