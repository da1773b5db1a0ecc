package models

import "time"

// RelocationRecord is an append-only history row written by every successful placement.
type RelocationRecord struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ModuleID        int64     `gorm:"column:module_id;not null;index:module_swap_relocation_module_idx"`
	FromDeviceID    *int64    `gorm:"column:from_device_id"`
	FromModuleBayID *int64    `gorm:"column:from_module_bay_id"`
	ToDeviceID      int64     `gorm:"column:to_device_id;not null"`
	ToModuleBayID   int64     `gorm:"column:to_module_bay_id;not null"`
	InventoryItemID *int64    `gorm:"column:inventory_item_id"`
	ActorID         string    `gorm:"column:actor_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RelocationRecord) TableName() string { return "module_swap_relocation" }
