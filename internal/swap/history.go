package swap

import (
	"context"
	"time"

	"github.com/angelmondragon/module-swap/internal/repo"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"gorm.io/gorm"
)

// HistoryRepository persists relocation records.
type HistoryRepository interface {
	WithTx(tx *gorm.DB) HistoryRepository
	Create(ctx context.Context, record *models.RelocationRecord) error
	List(ctx context.Context, filter HistoryFilter, params pagination.Params) ([]models.RelocationRecord, string, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type historyRepository struct {
	repo.Base
}

// NewHistoryRepository builds a relocation history repository bound to the provided DB.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{Base: repo.NewBase(db)}
}

func (r *historyRepository) WithTx(tx *gorm.DB) HistoryRepository {
	if tx == nil {
		return r
	}
	return &historyRepository{Base: r.Bind(tx)}
}

func (r *historyRepository) Create(ctx context.Context, record *models.RelocationRecord) error {
	return r.DB(ctx).Create(record).Error
}

// List pages newest first; the cursor holds the last id returned.
func (r *historyRepository) List(ctx context.Context, filter HistoryFilter, params pagination.Params) ([]models.RelocationRecord, string, error) {
	window, err := pagination.NewWindow(params)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).Model(&models.RelocationRecord{})
	if filter.ModuleID != nil {
		query = query.Where("module_id = ?", *filter.ModuleID)
	}
	if window.After != nil {
		query = query.Where("id < ?", window.After.ID)
	}

	var records []models.RelocationRecord
	if err := query.Order("id DESC").Limit(window.Fetch()).Find(&records).Error; err != nil {
		return nil, "", err
	}

	records, next := pagination.Page(records, window, func(rec models.RelocationRecord) int64 { return rec.ID })
	return records, next, nil
}

// DeleteBefore prunes records created before cutoff and reports how many went.
func (r *historyRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("created_at < ?", cutoff).Delete(&models.RelocationRecord{})
	return res.RowsAffected, res.Error
}
