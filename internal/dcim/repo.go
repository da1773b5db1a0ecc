package dcim

import (
	"context"

	"github.com/angelmondragon/module-swap/internal/repo"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	"gorm.io/gorm"
)

// freeBayClause matches dcim_device rows owning at least one bay no module points at.
const freeBayClause = `EXISTS (
  SELECT 1 FROM dcim_modulebay b
  WHERE b.device_id = dcim_device.id
    AND NOT EXISTS (SELECT 1 FROM dcim_module m WHERE m.module_bay_id = b.id)
)`

type repository struct {
	repo.Base
}

// NewRepository builds a DCIM repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) FindDevice(ctx context.Context, id int64) (*models.Device, error) {
	var device models.Device
	if err := r.DB(ctx).Where("id = ?", id).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *repository) FindModule(ctx context.Context, id int64) (*models.Module, error) {
	var module models.Module
	if err := r.DB(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *repository) FindModuleBay(ctx context.Context, id int64) (*models.ModuleBay, error) {
	var bay models.ModuleBay
	if err := r.DB(ctx).Where("id = ?", id).First(&bay).Error; err != nil {
		return nil, err
	}
	return &bay, nil
}

func (r *repository) FindInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListModules(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	if err := r.DB(ctx).Order("id ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *repository) ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DevicesWithFreeBay is evaluated on every call; occupancy is never cached.
func (r *repository) DevicesWithFreeBay(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.DB(ctx).
		Where(freeBayClause).
		Order("dcim_device.name ASC, dcim_device.id ASC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *repository) DeviceHasFreeBay(ctx context.Context, deviceID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Device{}).
		Where("dcim_device.id = ?", deviceID).
		Where(freeBayClause).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListBays(ctx context.Context, deviceID int64) ([]BaySlot, error) {
	var slots []BaySlot
	err := r.DB(ctx).
		Table("dcim_modulebay AS b").
		Select("b.id, b.device_id, b.name, COALESCE(b.position, '') AS position, m.id AS occupant_module_id").
		Joins("LEFT JOIN dcim_module m ON m.module_bay_id = b.id").
		Where("b.device_id = ?", deviceID).
		Order("b.id ASC").
		Scan(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// FindBayOccupant returns the module installed in the bay or nil when it is free.
func (r *repository) FindBayOccupant(ctx context.Context, bayID int64) (*models.Module, error) {
	var modules []models.Module
	if err := r.DB(ctx).Where("module_bay_id = ?", bayID).Limit(1).Find(&modules).Error; err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}
	return &modules[0], nil
}

// VacateBay detaches the module from its bay without touching its device.
// The column update bypasses the save hook, which only guards a set bay.
func (r *repository) VacateBay(ctx context.Context, moduleID int64) error {
	return r.DB(ctx).
		Table(models.Module{}.TableName()).
		Where("id = ?", moduleID).
		Update("module_bay_id", nil).Error
}

func (r *repository) SaveModule(ctx context.Context, module *models.Module) error {
	return r.DB(ctx).Save(module).Error
}

func (r *repository) SetInventoryItemDevice(ctx context.Context, itemID int64, deviceID int64) error {
	return r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Update("device_id", deviceID).Error
}
