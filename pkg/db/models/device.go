package models

// Device is a host DCIM device; this service never creates or deletes devices.
type Device struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null"`
}

func (Device) TableName() string { return "dcim_device" }
