package models

// InventoryItem is a host inventory record that may be paired with a module.
type InventoryItem struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceID *int64 `gorm:"column:device_id;index"`
	Name     string `gorm:"column:name;not null"`
	Serial   string `gorm:"column:serial"`
}

func (InventoryItem) TableName() string { return "dcim_inventoryitem" }
