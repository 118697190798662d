package order

import (
	"github.com/go-playground/validator/v10"
	"github.com/restomesh/kds-sync/internal/service/models/currency"
)

// DraftItem is a line item of a not-yet-submitted order.
type DraftItem struct {
	MenuItemID          string            `json:"menuItemId"                    validate:"required"`
	CategoryID          string            `json:"categoryId"`
	Quantity            int               `json:"quantity"                      validate:"gt=0"`
	PriceCents          int64             `json:"priceCents"                    validate:"gt=0"`
	PriceCurrency       currency.Currency `json:"priceCurrency"`
	SpecialInstructions string            `json:"specialInstructions,omitempty"`
}

// Draft is the submit-order intent payload. Identity, sequence number,
// timestamps, creator and status are assigned by the remote store.
type Draft struct {
	TableNumber        string            `json:"tableNumber"     validate:"required"`
	Priority           Priority          `json:"priority"`
	Notes              string            `json:"notes,omitempty"`
	OrderItems         []DraftItem       `json:"orderItems"      validate:"required,min=1,dive"`
	TotalPriceCents    int64             `json:"totalPriceCents"`
	TotalPriceCurrency currency.Currency `json:"totalPriceCurrency"`
}

// Validate validates the draft.
func (d Draft) Validate() error {
	return validator.New().Struct(d)
}

// Total returns the sum of unit price times quantity across all draft items.
func (d Draft) Total() int64 {
	var total int64
	for _, item := range d.OrderItems {
		total += item.PriceCents * int64(item.Quantity)
	}

	return total
}

// Update is a partial edit of an existing order. Nil fields are left
// untouched by the remote store.
type Update struct {
	TableNumber     *string     `json:"tableNumber,omitempty"`
	Priority        *Priority   `json:"priority,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	OrderItems      []DraftItem `json:"orderItems,omitempty"      validate:"omitempty,min=1,dive"`
	TotalPriceCents *int64      `json:"totalPriceCents,omitempty" validate:"omitempty,gt=0"`
}

// Validate validates the update.
func (u Update) Validate() error {
	return validator.New().Struct(u)
}
