package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/currency"
)

var ErrMissingID = errors.New("order payload has no id")

// Wire mirrors an order payload as it appears on the REST and push-channel
// boundaries: all date fields are strings and nothing is trusted structurally.
type Wire struct {
	ID                 string     `json:"id"`
	OrderNumber        string     `json:"orderNumber"`
	TableNumber        string     `json:"tableNumber"`
	OrderItems         []WireItem `json:"orderItems"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	TotalPriceCents    int64      `json:"totalPriceCents"`
	TotalPriceCurrency string     `json:"totalPriceCurrency"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
	EstimatedReadyTime string     `json:"estimatedReadyTime,omitempty"`
	ActualReadyTime    string     `json:"actualReadyTime,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedBy          User       `json:"createdBy"`
	CreatedByID        string     `json:"createdById"`
}

// WireItem mirrors an order line item on the wire.
type WireItem struct {
	ID                  string `json:"id"`
	OrderID             string `json:"orderId"`
	MenuItemID          string `json:"menuItemId"`
	CategoryID          string `json:"categoryId"`
	Quantity            int    `json:"quantity"`
	PriceCents          int64  `json:"priceCents"`
	PriceCurrency       string `json:"priceCurrency"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
	Image               string `json:"image,omitempty"`
}

// Parse validates a wire payload and converts it into the typed model.
func (w Wire) Parse() (Order, error) {
	if w.ID == "" {
		return Order{}, ErrMissingID
	}

	status, err := ParseStatus(w.Status)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", w.ID, err)
	}

	priority := PriorityNormal
	if w.Priority != "" {
		priority, err = ParsePriority(w.Priority)
		if err != nil {
			return Order{}, fmt.Errorf("order %s: %w", w.ID, err)
		}
	}

	createdAt, err := parseWireTime(w.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: createdAt: %w", w.ID, err)
	}
	updatedAt, err := parseWireTime(w.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: updatedAt: %w", w.ID, err)
	}
	estimatedReady, err := parseOptionalWireTime(w.EstimatedReadyTime)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: estimatedReadyTime: %w", w.ID, err)
	}
	actualReady, err := parseOptionalWireTime(w.ActualReadyTime)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: actualReadyTime: %w", w.ID, err)
	}

	items := make([]OrderItem, 0, len(w.OrderItems))
	for _, item := range w.OrderItems {
		items = append(items, OrderItem{
			ID:                  item.ID,
			OrderID:             item.OrderID,
			MenuItemID:          item.MenuItemID,
			CategoryID:          item.CategoryID,
			Quantity:            item.Quantity,
			PriceCents:          item.PriceCents,
			PriceCurrency:       parseWireCurrency(item.PriceCurrency),
			SpecialInstructions: item.SpecialInstructions,
			Image:               item.Image,
		})
	}

	return Order{
		ID:                 w.ID,
		OrderNumber:        w.OrderNumber,
		TableNumber:        w.TableNumber,
		OrderItems:         items,
		Status:             status,
		Priority:           priority,
		TotalPriceCents:    w.TotalPriceCents,
		TotalPriceCurrency: parseWireCurrency(w.TotalPriceCurrency),
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
		EstimatedReadyTime: estimatedReady,
		ActualReadyTime:    actualReady,
		Notes:              w.Notes,
		CreatedBy:          w.CreatedBy,
		CreatedByID:        w.CreatedByID,
	}, nil
}

func parseWireTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseOptionalWireTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func parseWireCurrency(s string) currency.Currency {
	if s == "" {
		return currency.CurrencyUSD
	}

	c, err := currency.ParseCurrency(s)
	if err != nil {
		return currency.CurrencyUSD
	}

	return c
}
