package links

import (
	"context"
	"errors"

	"github.com/angelmondragon/module-swap/internal/dcim"
	"github.com/angelmondragon/module-swap/pkg/db"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/metrics"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"gorm.io/gorm"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type writeRecorder interface {
	IncLinkWrite(op, outcome string)
}

// Service manages module to inventory item links.
type Service interface {
	Form(ctx context.Context, linkID *int64) (*FormView, error)
	Create(ctx context.Context, input LinkInput) (*LinkView, error)
	Update(ctx context.Context, id int64, input LinkInput) (*LinkView, error)
	Get(ctx context.Context, id int64) (*LinkView, error)
	List(ctx context.Context, params pagination.Params) (*LinkList, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo    Repository
	hosts   dcim.Repository
	tx      txRunner
	metrics writeRecorder
}

// ServiceParams groups the dependencies of the link service.
type ServiceParams struct {
	Repo    Repository
	Hosts   dcim.Repository
	Tx      txRunner
	Metrics writeRecorder
}

// NewService wires the link service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("links repository is required")
	}
	if params.Hosts == nil {
		return nil, errors.New("dcim repository is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	return &service{
		repo:    params.Repo,
		hosts:   params.Hosts,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

func (s *service) Form(ctx context.Context, linkID *int64) (*FormView, error) {
	view := &FormView{}
	if linkID != nil {
		link, err := s.Get(ctx, *linkID)
		if err != nil {
			return nil, err
		}
		view.Link = link
	}

	modules, err := s.hosts.ListModules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list modules")
	}
	items, err := s.hosts.ListInventoryItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory items")
	}

	view.Modules = make([]Choice, 0, len(modules))
	for _, module := range modules {
		view.Modules = append(view.Modules, Choice{ID: module.ID, Label: module.Label()})
	}
	view.InventoryItems = make([]Choice, 0, len(items))
	for _, item := range items {
		view.InventoryItems = append(view.InventoryItems, Choice{ID: item.ID, Label: item.Name})
	}
	return view, nil
}

func (s *service) Create(ctx context.Context, input LinkInput) (*LinkView, error) {
	return s.save(ctx, opCreate, nil, input)
}

func (s *service) Update(ctx context.Context, id int64, input LinkInput) (*LinkView, error) {
	return s.save(ctx, opUpdate, &id, input)
}

func (s *service) Get(ctx context.Context, id int64) (*LinkView, error) {
	view, err := s.repo.FindView(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "link not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load link")
	}
	return view, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*LinkList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": err.Error()})
	}
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list links")
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.record(opDelete, err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete link")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "link not found")
	}
	s.record(opDelete, nil)
	return nil
}

// save validates both ends, re-homes the inventory item onto the module's
// device and persists the link in one transaction.
func (s *service) save(ctx context.Context, op string, id *int64, input LinkInput) (*LinkView, error) {
	if fields := requiredFields(input); len(fields) > 0 {
		return nil, pkgerrors.FieldErrors(fields)
	}
	moduleID, itemID := *input.ModuleID, *input.InventoryItemID

	var savedID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		links := s.repo.WithTx(tx)
		hosts := s.hosts.WithTx(tx)

		link := &models.ModuleInventoryLink{}
		if id != nil {
			existing, err := links.FindByID(ctx, *id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "link not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load link")
			}
			link = existing
		}

		fields := map[string]string{}
		module, err := hosts.FindModule(ctx, moduleID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load module")
			}
			fields[FieldModule] = msgInvalidChoice
		}
		item, err := hosts.FindInventoryItem(ctx, itemID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
			}
			fields[FieldInventoryItem] = msgInvalidChoice
		}

		if module != nil {
			other, err := links.FindByModule(ctx, module.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check module link")
			}
			if other != nil && other.ID != link.ID {
				fields[FieldModule] = msgModuleLinked
			}
		}
		if item != nil {
			other, err := links.FindByInventoryItem(ctx, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check inventory item link")
			}
			if other != nil && other.ID != link.ID {
				fields[FieldInventoryItem] = msgInventoryItemLinked
			}
		}
		if len(fields) > 0 {
			return pkgerrors.FieldErrors(fields)
		}

		if module.DeviceID != nil {
			if err := hosts.SetInventoryItemDevice(ctx, item.ID, *module.DeviceID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync inventory item device")
			}
		}

		link.ModuleID = module.ID
		link.InventoryItemID = item.ID
		if link.ID == 0 {
			err = links.Create(ctx, link)
		} else {
			err = links.Update(ctx, link)
		}
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return uniqueViolationFields(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save link")
		}
		savedID = link.ID
		return nil
	})
	s.record(op, err)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, savedID)
}

func (s *service) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	s.metrics.IncLinkWrite(op, outcome)
}

func requiredFields(input LinkInput) map[string]string {
	fields := map[string]string{}
	if input.ModuleID == nil || *input.ModuleID <= 0 {
		fields[FieldModule] = msgRequired
	}
	if input.InventoryItemID == nil || *input.InventoryItemID <= 0 {
		fields[FieldInventoryItem] = msgRequired
	}
	return fields
}

// uniqueViolationFields maps a storage-level uniqueness failure raised by a
// concurrent writer onto the same field messages as the pre-check.
func uniqueViolationFields(err error) *pkgerrors.Error {
	if db.IsUniqueViolation(err, "inventory_item_id") {
		return pkgerrors.FieldErrors(map[string]string{FieldInventoryItem: msgInventoryItemLinked})
	}
	return pkgerrors.FieldErrors(map[string]string{FieldModule: msgModuleLinked})
}
