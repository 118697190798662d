// Package views computes derived, immutable kitchen views from a snapshot of
// the reconciled order collection. Everything here is a pure function of its
// inputs; nothing holds state between calls.
package views

import (
	"errors"
	"sort"
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/order"
)

// PrepMinutesPerItem is the fixed preparation heuristic: five minutes per
// unit of item quantity.
const PrepMinutesPerItem = 5

// Filter restricts the board to one active status, or shows all active orders.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterNew        Filter = "new"
	FilterInProgress Filter = "in-progress"
	FilterReady      Filter = "ready"
)

var (
	ErrInvalidFilter   = errors.New("invalid board filter")
	ErrInvalidSortMode = errors.New("invalid sort mode")
)

// ParseFilter parses a filter value; empty input means all active orders.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterNew, FilterInProgress, FilterReady:
		return Filter(s), nil
	default:
		return "", ErrInvalidFilter
	}
}

// SortMode selects the ticket ordering on the board.
type SortMode string

const (
	SortByTime     SortMode = "time"
	SortByPriority SortMode = "priority"
)

// ParseSortMode parses a sort mode; empty input means creation-time order.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortByTime:
		return SortByTime, nil
	case SortByPriority:
		return SortByPriority, nil
	default:
		return "", ErrInvalidSortMode
	}
}

// Ticket is one order on the kitchen board, enriched with the time-derived
// fields re-evaluated on each build.
type Ticket struct {
	order.Order
	ElapsedMinutes   int  `json:"elapsedMinutes"`
	EstimatedMinutes int  `json:"estimatedMinutes"`
	Overdue          bool `json:"overdue"`
}

// Stats are the aggregate counts over the active orders.
type Stats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"inProgress"`
	Ready      int `json:"ready"`
	Overdue    int `json:"overdue"`
}

// Board is the full derived kitchen view.
type Board struct {
	Tickets     []Ticket  `json:"tickets"`
	Stats       Stats     `json:"stats"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// EstimatedPrepMinutes returns the heuristic preparation estimate for an
// order: PrepMinutesPerItem times the total item quantity.
func EstimatedPrepMinutes(o order.Order) int {
	return PrepMinutesPerItem * o.ItemCount()
}

// ElapsedMinutes returns whole wall-clock minutes since the order was created.
func ElapsedMinutes(o order.Order, now time.Time) int {
	return int(now.Sub(o.CreatedAt) / time.Minute)
}

// IsOverdue reports whether an active order has exceeded its preparation
// estimate. Completed orders are never overdue.
func IsOverdue(o order.Order, now time.Time) bool {
	if o.Status.Terminal() {
		return false
	}

	return ElapsedMinutes(o, now) > EstimatedPrepMinutes(o)
}

// Build computes the board in a single pass over the collection: the stats
// and the filtered ticket list are derived from the same traversal so they
// cannot disagree.
func Build(orders []order.Order, filter Filter, mode SortMode, now time.Time) Board {
	tickets := make([]Ticket, 0, len(orders))
	var stats Stats

	for _, o := range orders {
		if o.Status.Terminal() {
			continue
		}

		ticket := Ticket{
			Order:            o,
			ElapsedMinutes:   ElapsedMinutes(o, now),
			EstimatedMinutes: EstimatedPrepMinutes(o),
		}
		ticket.Overdue = ticket.ElapsedMinutes > ticket.EstimatedMinutes

		stats.Total++
		switch o.Status {
		case order.StatusNew:
			stats.New++
		case order.StatusInProgress:
			stats.InProgress++
		case order.StatusReady:
			stats.Ready++
		}
		if ticket.Overdue {
			stats.Overdue++
		}

		if filter == FilterAll || Filter(o.Status) == filter {
			tickets = append(tickets, ticket)
		}
	}

	sortTickets(tickets, mode)

	return Board{
		Tickets:     tickets,
		Stats:       stats,
		GeneratedAt: now,
	}
}

// BuildStats computes only the aggregate counts over all active orders.
func BuildStats(orders []order.Order, now time.Time) Stats {
	return Build(orders, FilterAll, SortByTime, now).Stats
}

func sortTickets(tickets []Ticket, mode SortMode) {
	sort.SliceStable(tickets, func(i, j int) bool {
		if mode == SortByPriority {
			ri, rj := tickets[i].Priority.Rank(), tickets[j].Priority.Rank()
			if ri != rj {
				return ri > rj
			}
		}

		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}
