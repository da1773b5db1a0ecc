package models

// ModuleBay is a slot on a device. Occupancy is derived from dcim_module.module_bay_id.
type ModuleBay struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceID int64  `gorm:"column:device_id;not null;index"`
	Name     string `gorm:"column:name;not null"`
	Position string `gorm:"column:position"`
}

func (ModuleBay) TableName() string { return "dcim_modulebay" }
