package dcim

import (
	"context"

	"github.com/angelmondragon/module-swap/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads and mutates the host DCIM tables the relocation workflow touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDevice(ctx context.Context, id int64) (*models.Device, error)
	FindModule(ctx context.Context, id int64) (*models.Module, error)
	FindModuleBay(ctx context.Context, id int64) (*models.ModuleBay, error)
	FindInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	DevicesWithFreeBay(ctx context.Context) ([]models.Device, error)
	DeviceHasFreeBay(ctx context.Context, deviceID int64) (bool, error)
	ListBays(ctx context.Context, deviceID int64) ([]BaySlot, error)
	FindBayOccupant(ctx context.Context, bayID int64) (*models.Module, error)
	VacateBay(ctx context.Context, moduleID int64) error
	SaveModule(ctx context.Context, module *models.Module) error
	SetInventoryItemDevice(ctx context.Context, itemID int64, deviceID int64) error
}

// BaySlot is a module bay together with the module installed in it, if any.
type BaySlot struct {
	ID               int64  `json:"id"`
	DeviceID         int64  `json:"device_id"`
	Name             string `json:"name"`
	Position         string `json:"position"`
	OccupantModuleID *int64 `json:"occupant_module_id,omitempty"`
}

// Occupied reports whether any module sits in the bay.
func (s BaySlot) Occupied() bool {
	return s.OccupantModuleID != nil
}
