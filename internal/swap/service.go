package swap

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/module-swap/internal/dcim"
	"github.com/angelmondragon/module-swap/internal/links"
	"github.com/angelmondragon/module-swap/pkg/db/models"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/metrics"
	"github.com/angelmondragon/module-swap/pkg/pagination"
	"github.com/angelmondragon/module-swap/pkg/workflow"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type workflowStore interface {
	Start(ctx context.Context, userID string, sel workflow.Selection) (string, *workflow.State, error)
	Replace(ctx context.Context, token, userID string, sel workflow.Selection) (*workflow.State, error)
	Load(ctx context.Context, token, userID string) (*workflow.State, error)
	Clear(ctx context.Context, token string) error
}

type relocationRecorder interface {
	ObserveRelocation(outcome string, duration time.Duration)
}

// Service drives the two-step module relocation workflow.
type Service interface {
	SelectionForm(ctx context.Context, pinnedModuleID *int64) (*SelectionForm, error)
	Select(ctx context.Context, actor Actor, token string, input SelectInput) (*SelectResult, error)
	PlacementForm(ctx context.Context, actor Actor, token string) (*PlacementForm, error)
	Place(ctx context.Context, actor Actor, token string, input PlaceInput) (*PlacementResult, error)
	History(ctx context.Context, filter HistoryFilter, params pagination.Params) (*HistoryList, error)
}

type service struct {
	hosts    dcim.Repository
	links    links.Repository
	history  HistoryRepository
	tx       txRunner
	workflow workflowStore
	metrics  relocationRecorder
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams groups the dependencies of the relocation service.
type ServiceParams struct {
	Hosts    dcim.Repository
	Links    links.Repository
	History  HistoryRepository
	Tx       txRunner
	Workflow workflowStore
	Metrics  relocationRecorder
	Logger   *logger.Logger
}

// NewService wires the relocation service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Hosts == nil:
		return nil, errors.New("dcim repository is required")
	case params.Links == nil:
		return nil, errors.New("links repository is required")
	case params.History == nil:
		return nil, errors.New("history repository is required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner is required")
	case params.Workflow == nil:
		return nil, errors.New("workflow store is required")
	}
	return &service{
		hosts:    params.Hosts,
		links:    params.Links,
		history:  params.History,
		tx:       params.Tx,
		workflow: params.Workflow,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// SelectionForm pins the module list to pinnedModuleID when it names an
// existing module. An unknown pin is ignored.
func (s *service) SelectionForm(ctx context.Context, pinnedModuleID *int64) (*SelectionForm, error) {
	form := &SelectionForm{}

	modules, pinned, err := s.selectableModules(ctx, pinnedModuleID)
	if err != nil {
		return nil, err
	}
	if pinned != nil {
		form.PinnedModuleID = &pinned.ID
	}
	form.Modules = make([]Choice, 0, len(modules))
	for _, module := range modules {
		form.Modules = append(form.Modules, moduleChoice(module))
	}

	devices, err := s.hosts.DevicesWithFreeBay(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list devices with free bays")
	}
	form.Devices = make([]Choice, 0, len(devices))
	for _, device := range devices {
		form.Devices = append(form.Devices, deviceChoice(device))
	}
	return form, nil
}

func (s *service) Select(ctx context.Context, actor Actor, token string, input SelectInput) (*SelectResult, error) {
	fields := map[string]string{}
	if input.SelectedModule == nil {
		fields[FieldSelectedModule] = msgRequired
	}
	if input.TargetDevice == nil {
		fields[FieldTargetDevice] = msgRequired
	}

	if input.SelectedModule != nil {
		ok, err := s.moduleSelectable(ctx, *input.SelectedModule, input.PinnedModuleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fields[FieldSelectedModule] = msgInvalidChoice
		}
	}
	if input.TargetDevice != nil {
		ok, err := s.hosts.DeviceHasFreeBay(ctx, *input.TargetDevice)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check target device")
		}
		if !ok {
			fields[FieldTargetDevice] = msgInvalidChoice
		}
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidSelection).WithDetails(fields)
	}

	sel := workflow.Selection{ModuleID: *input.SelectedModule, DeviceID: *input.TargetDevice}
	var state *workflow.State
	var err error
	if token != "" {
		state, err = s.workflow.Replace(ctx, token, actor.UserID, sel)
		if errors.Is(err, workflow.ErrNotFound) {
			token = ""
		} else if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store workflow state")
		}
	}
	if token == "" {
		token, state, err = s.workflow.Start(ctx, actor.UserID, sel)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store workflow state")
		}
	}

	return &SelectResult{
		Token:     token,
		ModuleID:  state.ModuleID,
		DeviceID:  state.DeviceID,
		ExpiresAt: state.ExpiresAt,
	}, nil
}

func (s *service) PlacementForm(ctx context.Context, actor Actor, token string) (*PlacementForm, error) {
	state, err := s.loadState(ctx, actor, token, msgSelectFirst)
	if err != nil {
		return nil, err
	}
	module, device, err := s.loadSelection(ctx, token, state)
	if err != nil {
		return nil, err
	}

	bays, err := s.hosts.ListBays(ctx, device.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list module bays")
	}
	return &PlacementForm{
		Module: moduleChoice(*module),
		Device: deviceChoice(*device),
		Bays:   bays,
	}, nil
}

// Place moves the selected module into the chosen bay. The workflow state is
// kept when the transfer fails so the caller can retry, and dropped once the
// transfer commits or the selection can no longer succeed.
func (s *service) Place(ctx context.Context, actor Actor, token string, input PlaceInput) (*PlacementResult, error) {
	state, err := s.loadState(ctx, actor, token, msgSelectionMissing)
	if err != nil {
		return nil, err
	}
	if input.TargetModuleBay == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBay).
			WithDetails(map[string]string{FieldTargetModuleBay: msgRequired})
	}

	module, device, err := s.loadSelection(ctx, token, state)
	if err != nil {
		return nil, err
	}
	bay, err := s.targetBay(ctx, module, device, *input.TargetModuleBay)
	if err != nil {
		return nil, err
	}

	started := s.now()
	result, err := s.transfer(ctx, actor, module.ID, *bay)
	if err != nil {
		s.observe(metrics.OutcomeFailure, started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransfer, err, "module transfer failed").
			WithDetails(map[string]any{"step": "transfer", "module_id": module.ID, "module_bay_id": bay.ID})
	}
	s.observe(metrics.OutcomeSuccess, started)

	// The move is committed; a stale selection only lingers until its TTL.
	if err := s.workflow.Clear(ctx, token); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "module_id", module.ID), "clear workflow state after relocation", err)
	}
	return result, nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter, params pagination.Params) (*HistoryList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": err.Error()})
	}
	records, next, err := s.history.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list relocation history")
	}
	list := &HistoryList{Entries: make([]HistoryEntry, 0, len(records)), NextCursor: next}
	for _, record := range records {
		list.Entries = append(list.Entries, historyEntry(record))
	}
	return list, nil
}

// transfer runs vacate, occupy, propagate and record as one transaction.
func (s *service) transfer(ctx context.Context, actor Actor, moduleID int64, bay models.ModuleBay) (*PlacementResult, error) {
	result := &PlacementResult{Message: msgMoved, ModuleBayID: bay.ID, DeviceID: bay.DeviceID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		hosts := s.hosts.WithTx(tx)

		module, err := hosts.FindModule(ctx, moduleID)
		if err != nil {
			return err
		}
		record := &models.RelocationRecord{
			ModuleID:        module.ID,
			FromDeviceID:    module.DeviceID,
			FromModuleBayID: module.ModuleBayID,
			ToDeviceID:      bay.DeviceID,
			ToModuleBayID:   bay.ID,
			ActorID:         actor.UserID,
		}

		if module.ModuleBayID != nil {
			if err := hosts.VacateBay(ctx, module.ID); err != nil {
				return err
			}
		}

		module.PlaceInBay(bay)
		if err := hosts.SaveModule(ctx, module); err != nil {
			return err
		}

		link, err := s.links.WithTx(tx).FindByModule(ctx, module.ID)
		if err != nil {
			return err
		}
		if link != nil {
			if err := hosts.SetInventoryItemDevice(ctx, link.InventoryItemID, bay.DeviceID); err != nil {
				return err
			}
			itemID := link.InventoryItemID
			record.InventoryItemID = &itemID
		}

		if err := s.history.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}

		result.ModuleID = module.ID
		result.InventoryItemID = record.InventoryItemID
		result.RelocationID = record.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) loadState(ctx context.Context, actor Actor, token, warning string) (*workflow.State, error) {
	state, err := s.workflow.Load(ctx, token, actor.UserID)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeWorkflow, warning)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load workflow state")
	}
	return state, nil
}

// loadSelection resolves the stored ids. A selection whose module or device
// has been deleted can never succeed, so its state is cleared.
func (s *service) loadSelection(ctx context.Context, token string, state *workflow.State) (*models.Module, *models.Device, error) {
	module, err := s.hosts.FindModule(ctx, state.ModuleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load selected module")
	}
	var device *models.Device
	if err == nil {
		device, err = s.hosts.FindDevice(ctx, state.DeviceID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load target device")
		}
	}
	if err != nil {
		if clearErr := s.workflow.Clear(ctx, token); clearErr != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, clearErr, "clear workflow state")
		}
		return nil, nil, pkgerrors.New(pkgerrors.CodeWorkflow, msgSelectionGone)
	}
	return module, device, nil
}

func (s *service) targetBay(ctx context.Context, module *models.Module, device *models.Device, bayID int64) (*models.ModuleBay, error) {
	invalid := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBay).
			WithDetails(map[string]string{FieldTargetModuleBay: msg})
	}

	bay, err := s.hosts.FindModuleBay(ctx, bayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid(msgInvalidChoice)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load module bay")
	}
	if bay.DeviceID != device.ID {
		return nil, invalid(msgInvalidChoice)
	}

	occupant, err := s.hosts.FindBayOccupant(ctx, bay.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check module bay occupancy")
	}
	if occupant != nil && occupant.ID != module.ID {
		return nil, invalid(msgBayOccupied)
	}
	return bay, nil
}

func (s *service) selectableModules(ctx context.Context, pinnedModuleID *int64) ([]models.Module, *models.Module, error) {
	if pinnedModuleID != nil {
		pinned, err := s.hosts.FindModule(ctx, *pinnedModuleID)
		if err == nil {
			return []models.Module{*pinned}, pinned, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pinned module")
		}
	}
	modules, err := s.hosts.ListModules(ctx)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list modules")
	}
	return modules, nil, nil
}

// moduleSelectable reports whether moduleID is one of the offered choices.
func (s *service) moduleSelectable(ctx context.Context, moduleID int64, pinnedModuleID *int64) (bool, error) {
	if pinnedModuleID != nil {
		pinned, err := s.hosts.FindModule(ctx, *pinnedModuleID)
		if err == nil {
			return pinned.ID == moduleID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pinned module")
		}
	}
	if _, err := s.hosts.FindModule(ctx, moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load module")
	}
	return true, nil
}

func (s *service) observe(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRelocation(outcome, s.now().Sub(started))
}
