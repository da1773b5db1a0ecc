package links

import (
	"context"

	"github.com/angelmondragon/module-swap/pkg/db/models"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for module_swap_moduleinventorylink.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, link *models.ModuleInventoryLink) error
	Update(ctx context.Context, link *models.ModuleInventoryLink) error
	Delete(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.ModuleInventoryLink, error)
	FindByModule(ctx context.Context, moduleID int64) (*models.ModuleInventoryLink, error)
	FindByInventoryItem(ctx context.Context, itemID int64) (*models.ModuleInventoryLink, error)
	FindView(ctx context.Context, id int64) (*LinkView, error)
	List(ctx context.Context, params pagination.Params) (*LinkList, error)
}
