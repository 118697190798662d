package order

import (
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/currency"
)

// User is the creator reference carried on an order.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// OrderItem represents a line item within an order. The price is a snapshot
// taken at order-creation time and is not affected by later menu changes.
type OrderItem struct {
	ID                  string            `json:"id"`
	OrderID             string            `json:"orderId"`
	MenuItemID          string            `json:"menuItemId"`
	CategoryID          string            `json:"categoryId"`
	Quantity            int               `json:"quantity"`
	PriceCents          int64             `json:"priceCents"`
	PriceCurrency       currency.Currency `json:"priceCurrency"`
	SpecialInstructions string            `json:"specialInstructions,omitempty"`
	Image               string            `json:"image,omitempty"`
}

// Order represents a single table's food request as held in the local
// collection. Identity is server-assigned and immutable.
type Order struct {
	ID                 string            `json:"id"`
	OrderNumber        string            `json:"orderNumber"`
	TableNumber        string            `json:"tableNumber"`
	OrderItems         []OrderItem       `json:"orderItems"`
	Status             Status            `json:"status"`
	Priority           Priority          `json:"priority"`
	TotalPriceCents    int64             `json:"totalPriceCents"`
	TotalPriceCurrency currency.Currency `json:"totalPriceCurrency"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	EstimatedReadyTime *time.Time        `json:"estimatedReadyTime,omitempty"`
	ActualReadyTime    *time.Time        `json:"actualReadyTime,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	CreatedBy          User              `json:"createdBy"`
	CreatedByID        string            `json:"createdById"`
}

// ItemCount returns the total quantity across all line items.
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.OrderItems {
		count += item.Quantity
	}

	return count
}
