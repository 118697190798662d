package analytics

// Summary is the remote store's aggregate report for a date range. It is
// passed through to the presentation layer untouched.
type Summary struct {
	TotalOrders            int            `json:"totalOrders"`
	TotalRevenueCents      int64          `json:"totalRevenueCents"`
	AverageOrderValueCents int64          `json:"averageOrderValueCents"`
	OrdersByStatus         map[string]int `json:"ordersByStatus"`
	TopItems               []TopItem      `json:"topItems,omitempty"`
}

// TopItem is one entry of the best-sellers breakdown.
type TopItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}
