package links

import (
	"time"

	"github.com/angelmondragon/module-swap/pkg/db/models"
)

const (
	FieldModule        = "module"
	FieldInventoryItem = "inventory_item"

	msgRequired            = "This field is required."
	msgInvalidChoice       = "Select a valid choice. That choice is not one of the available choices."
	msgModuleLinked        = "This module is already linked with another InventoryItem."
	msgInventoryItemLinked = "This InventoryItem is already linked with another module."
)

// LinkInput is the body of a link create or edit submission.
type LinkInput struct {
	ModuleID        *int64 `json:"module" validate:"omitempty,min=1"`
	InventoryItemID *int64 `json:"inventory_item" validate:"omitempty,min=1"`
}

// LinkView is a link with the display names of both ends.
type LinkView struct {
	ID                int64     `json:"id"`
	ModuleID          int64     `json:"module_id"`
	ModuleName        string    `json:"module_name"`
	InventoryItemID   int64     `json:"inventory_item_id"`
	InventoryItemName string    `json:"inventory_item_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LinkList is one page of links ordered by id.
type LinkList struct {
	Links      []LinkView `json:"links"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Choice is one selectable option of a form field.
type Choice struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// FormView carries the choices for the link form and, when editing, the current link.
type FormView struct {
	Link           *LinkView `json:"link,omitempty"`
	Modules        []Choice  `json:"modules"`
	InventoryItems []Choice  `json:"inventory_items"`
}

type linkRow struct {
	ID                int64
	ModuleID          int64
	ModuleSerial      string
	InventoryItemID   int64
	InventoryItemName string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r linkRow) view() LinkView {
	return LinkView{
		ID:                r.ID,
		ModuleID:          r.ModuleID,
		ModuleName:        models.Module{ID: r.ModuleID, Serial: r.ModuleSerial}.Label(),
		InventoryItemID:   r.InventoryItemID,
		InventoryItemName: r.InventoryItemName,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
