package swap

import (
	"time"

	"github.com/angelmondragon/module-swap/internal/dcim"
	"github.com/angelmondragon/module-swap/pkg/db/models"
)

const (
	FieldSelectedModule  = "selected_module"
	FieldTargetDevice    = "target_device"
	FieldTargetModuleBay = "target_module_bay"

	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgBayOccupied   = "This module bay is already occupied by another module."

	msgInvalidSelection = "Invalid module or device selection."
	msgInvalidBay       = "Invalid module bay selection."
	msgSelectFirst      = "First, select a device in step 1."
	msgSelectionMissing = "You must first select a module and device in step 1."
	msgSelectionGone    = "The selected module or device no longer exists. Start again from step 1."
	msgMoved            = "Module successfully moved to the new module bay (and InventoryItem if applicable)."
)

// Actor identifies the user driving the workflow.
type Actor struct {
	UserID string
}

// Choice is one selectable option of a form field.
type Choice struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// SelectionForm lists the modules and target devices of the first step.
type SelectionForm struct {
	PinnedModuleID *int64   `json:"pinned_module_id,omitempty"`
	Modules        []Choice `json:"modules"`
	Devices        []Choice `json:"devices"`
}

// SelectInput is the body of the selection step.
type SelectInput struct {
	SelectedModule *int64 `json:"selected_module" validate:"omitempty,min=1"`
	TargetDevice   *int64 `json:"target_device" validate:"omitempty,min=1"`
	PinnedModuleID *int64 `json:"module_id,omitempty" validate:"omitempty,min=1"`
}

// SelectResult carries the token that unlocks the placement step.
type SelectResult struct {
	Token     string    `json:"token"`
	ModuleID  int64     `json:"module_id"`
	DeviceID  int64     `json:"device_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlacementForm lists the bays of the chosen device.
type PlacementForm struct {
	Module Choice         `json:"module"`
	Device Choice         `json:"device"`
	Bays   []dcim.BaySlot `json:"bays"`
}

// PlaceInput is the body of the placement step.
type PlaceInput struct {
	TargetModuleBay *int64 `json:"target_module_bay" validate:"omitempty,min=1"`
}

// PlacementResult describes a committed relocation.
type PlacementResult struct {
	Message         string `json:"message"`
	ModuleID        int64  `json:"module_id"`
	ModuleBayID     int64  `json:"module_bay_id"`
	DeviceID        int64  `json:"device_id"`
	InventoryItemID *int64 `json:"inventory_item_id,omitempty"`
	RelocationID    int64  `json:"relocation_id"`
}

// HistoryEntry is one relocation record.
type HistoryEntry struct {
	ID              int64     `json:"id"`
	ModuleID        int64     `json:"module_id"`
	FromDeviceID    *int64    `json:"from_device_id,omitempty"`
	FromModuleBayID *int64    `json:"from_module_bay_id,omitempty"`
	ToDeviceID      int64     `json:"to_device_id"`
	ToModuleBayID   int64     `json:"to_module_bay_id"`
	InventoryItemID *int64    `json:"inventory_item_id,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryList is one page of relocation history, newest first.
type HistoryList struct {
	Entries    []HistoryEntry `json:"entries"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// HistoryFilter narrows the history listing.
type HistoryFilter struct {
	ModuleID *int64
}

func historyEntry(r models.RelocationRecord) HistoryEntry {
	return HistoryEntry{
		ID:              r.ID,
		ModuleID:        r.ModuleID,
		FromDeviceID:    r.FromDeviceID,
		FromModuleBayID: r.FromModuleBayID,
		ToDeviceID:      r.ToDeviceID,
		ToModuleBayID:   r.ToModuleBayID,
		InventoryItemID: r.InventoryItemID,
		ActorID:         r.ActorID,
		CreatedAt:       r.CreatedAt,
	}
}

func deviceChoice(d models.Device) Choice {
	return Choice{ID: d.ID, Label: d.Name}
}

func moduleChoice(m models.Module) Choice {
	return Choice{ID: m.ID, Label: m.Label()}
}
