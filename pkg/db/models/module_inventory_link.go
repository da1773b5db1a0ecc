package models

import "time"

// ModuleInventoryLink pairs exactly one module with exactly one inventory item.
type ModuleInventoryLink struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ModuleID        int64     `gorm:"column:module_id;not null;uniqueIndex:module_swap_link_module_id_key"`
	InventoryItemID int64     `gorm:"column:inventory_item_id;not null;uniqueIndex:module_swap_link_inventory_item_id_key"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ModuleInventoryLink) TableName() string { return "module_swap_moduleinventorylink" }
