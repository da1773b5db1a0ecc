package links

import (
	"context"
	"errors"

	"github.com/angelmondragon/module-swap/internal/repo"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds a links repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, link *models.ModuleInventoryLink) error {
	return r.DB(ctx).Create(link).Error
}

func (r *repository) Update(ctx context.Context, link *models.ModuleInventoryLink) error {
	return r.DB(ctx).
		Model(link).
		Select("module_id", "inventory_item_id", "updated_at").
		Updates(link).Error
}

// Delete reports whether a row was removed.
func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ModuleInventoryLink{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.ModuleInventoryLink, error) {
	var link models.ModuleInventoryLink
	if err := r.DB(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByModule returns nil without error when the module is unlinked.
func (r *repository) FindByModule(ctx context.Context, moduleID int64) (*models.ModuleInventoryLink, error) {
	return r.findOne(ctx, "module_id = ?", moduleID)
}

// FindByInventoryItem returns nil without error when the item is unlinked.
func (r *repository) FindByInventoryItem(ctx context.Context, itemID int64) (*models.ModuleInventoryLink, error) {
	return r.findOne(ctx, "inventory_item_id = ?", itemID)
}

func (r *repository) findOne(ctx context.Context, clause string, arg int64) (*models.ModuleInventoryLink, error) {
	var link models.ModuleInventoryLink
	err := r.DB(ctx).Where(clause, arg).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) FindView(ctx context.Context, id int64) (*LinkView, error) {
	var rows []linkRow
	if err := r.viewQuery(ctx).Where("l.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	view := rows[0].view()
	return &view, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*LinkList, error) {
	window, err := pagination.NewWindow(params)
	if err != nil {
		return nil, err
	}

	query := r.viewQuery(ctx)
	if window.After != nil {
		query = query.Where("l.id > ?", window.After.ID)
	}

	var rows []linkRow
	if err := query.Order("l.id ASC").Limit(window.Fetch()).Scan(&rows).Error; err != nil {
		return nil, err
	}

	rows, next := pagination.Page(rows, window, func(row linkRow) int64 { return row.ID })
	list := &LinkList{Links: make([]LinkView, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Links = append(list.Links, row.view())
	}
	return list, nil
}

func (r *repository) viewQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table(models.ModuleInventoryLink{}.TableName() + " AS l").
		Select(`l.id, l.module_id, COALESCE(m.serial, '') AS module_serial,
l.inventory_item_id, i.name AS inventory_item_name, l.created_at, l.updated_at`).
		Joins("JOIN dcim_module m ON m.id = l.module_id").
		Joins("JOIN dcim_inventoryitem i ON i.id = l.inventory_item_id")
}
