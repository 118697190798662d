package syncsvc

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/restomesh/kds-sync/internal/service/models/daterange"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"go.opentelemetry.io/otel"
)

var (
	ErrEmptyOrder     = errors.New("order must contain at least one item")
	ErrNoCreator      = errors.New("order creator is not set")
	ErrUnknownOrder   = errors.New("order not found in current view")
	ErrTerminalStatus = errors.New("order status is terminal")
)

// storeClient is the slice of the Remote Order Store the engine needs.
type storeClient interface {
	ListOrders(ctx context.Context, rng daterange.DateRange) ([]order.Order, error)
	CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error)
	UpdateOrder(ctx context.Context, id string, upd order.Update) (order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// SyncService is the order reconciliation engine. It owns the local order
// collection for the current view and keeps it consistent across the initial
// fetch, streamed push events and locally issued mutation intents. All other
// components read copied snapshots; nothing mutates the collection directly.
type SyncService struct {
	store   storeClient
	creator order.User

	mu      sync.RWMutex
	orders  []order.Order
	index   map[string]int
	rng     daterange.DateRange
	issued  uint64 // fetch generations handed out
	applied uint64 // fetch generation currently reflected in the collection
}

// option is a function that configures the SyncService.
type option func(*SyncService)

// MustNewSyncService creates a new SyncService.
func MustNewSyncService(opts ...option) *SyncService {
	s := &SyncService{
		index: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithStoreClient sets the remote store client for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStoreClient(store storeClient) option {
	return func(s *SyncService) {
		s.store = store
	}
}

// WithCreator sets the session user submitted orders are created on behalf of.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCreator(creator order.User) option {
	return func(s *SyncService) {
		s.creator = creator
	}
}

// Refresh fetches the orders for the given range and replaces the collection
// wholesale: the fetch result is authoritative for what belongs in the window.
// Each fetch is tagged with a generation; a result superseded by a newer
// already-applied fetch is discarded so a slow response can never clobber a
// newer selection.
func (s *SyncService) Refresh(ctx context.Context, rng daterange.DateRange) error {
	ctx, span := otel.Tracer("syncsvc").Start(ctx, "SyncService.Refresh")
	defer span.End()

	s.mu.Lock()
	s.issued++
	generation := s.issued
	s.mu.Unlock()

	orders, err := s.store.ListOrders(ctx, rng)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation <= s.applied {
		slog.Info("Discarding stale fetch result", "generation", generation, "applied", s.applied)

		return nil
	}
	s.applied = generation
	s.rng = rng

	s.orders = orders
	s.index = make(map[string]int, len(orders))
	for i, o := range orders {
		s.index[o.ID] = i
	}

	slog.Info("Order collection refreshed", "count", len(orders), "range", rng)

	return nil
}

// Range returns the selector the collection was last refreshed with.
func (s *SyncService) Range() daterange.DateRange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rng
}

// Snapshot returns a read-only copy of the current collection in insertion
// order.
func (s *SyncService) Snapshot() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]order.Order, len(s.orders))
	copy(snapshot, s.orders)

	return snapshot
}

// Get returns the local entry for the given identity, if present.
func (s *SyncService) Get(id string) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return order.Order{}, false
	}

	return s.orders[i], true
}

// ApplyCreated merges an order-created event. If the identity is already
// present (the acting client receiving its own creation echo) the existing
// entry is left untouched; otherwise the order is appended. Returns whether
// the order was appended.
func (s *SyncService) ApplyCreated(o order.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[o.ID]; ok {
		return false
	}

	s.index[o.ID] = len(s.orders)
	s.orders = append(s.orders, o)

	return true
}

// ApplyUpdated merges an order-updated event by replacing the local entry
// wholesale; the server is authoritative for update ordering. An unknown
// identity is an out-of-window order and is ignored. Returns whether a local
// entry was replaced.
func (s *SyncService) ApplyUpdated(o order.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[o.ID]
	if !ok {
		return false
	}
	s.orders[i] = o

	return true
}

// ApplyDeleted merges an order-deleted event, removing the local entry if
// present. Returns whether an entry was removed.
func (s *SyncService) ApplyDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}

	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.orders); j++ {
		s.index[s.orders[j].ID] = j
	}

	return true
}

// SubmitOrder validates and submits a new order. The total is computed from
// the draft's line items before send; the value the store returns is
// authoritative. The local collection is only touched after confirmed
// success, and the append is idempotent with the push-channel creation echo.
func (s *SyncService) SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	ctx, span := otel.Tracer("syncsvc").Start(ctx, "SyncService.SubmitOrder")
	defer span.End()

	if len(draft.OrderItems) == 0 {
		return order.Order{}, ErrEmptyOrder
	}
	if s.creator.ID == "" {
		return order.Order{}, ErrNoCreator
	}
	if err := draft.Validate(); err != nil {
		return order.Order{}, err
	}

	draft.TotalPriceCents = draft.Total()
	if draft.Priority == "" {
		draft.Priority = order.PriorityNormal
	}

	created, err := s.store.CreateOrder(ctx, draft)
	if err != nil {
		return order.Order{}, err
	}

	if s.ApplyCreated(created) {
		slog.Info("Order submitted", "order_id", created.ID, "order_number", created.OrderNumber)
	}

	return created, nil
}

// AdvanceStatus moves an order to the single legal next status. The target is
// derived from the current local status, never freely chosen; whatever status
// the store returns is applied, since the server is the authority.
func (s *SyncService) AdvanceStatus(ctx context.Context, id string) (order.Order, error) {
	ctx, span := otel.Tracer("syncsvc").Start(ctx, "SyncService.AdvanceStatus")
	defer span.End()

	current, ok := s.Get(id)
	if !ok {
		return order.Order{}, ErrUnknownOrder
	}

	next, ok := current.Status.Next()
	if !ok {
		return order.Order{}, ErrTerminalStatus
	}

	updated, err := s.store.UpdateOrderStatus(ctx, id, next)
	if err != nil {
		return order.Order{}, err
	}

	s.ApplyUpdated(updated)
	slog.Info("Order status advanced", "order_id", id, "status", updated.Status)

	return updated, nil
}

// EditOrder applies a partial edit remotely and merges the canonical result.
// The only-while-new policy is the presentation layer's rule; the engine
// performs the remote update unconditionally.
func (s *SyncService) EditOrder(ctx context.Context, id string, upd order.Update) (order.Order, error) {
	ctx, span := otel.Tracer("syncsvc").Start(ctx, "SyncService.EditOrder")
	defer span.End()

	if err := upd.Validate(); err != nil {
		return order.Order{}, err
	}

	if upd.OrderItems != nil && upd.TotalPriceCents == nil {
		total := order.Draft{OrderItems: upd.OrderItems}.Total()
		upd.TotalPriceCents = &total
	}

	updated, err := s.store.UpdateOrder(ctx, id, upd)
	if err != nil {
		return order.Order{}, err
	}

	s.ApplyUpdated(updated)

	return updated, nil
}

// DeleteOrder removes an order remotely, then locally.
func (s *SyncService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("syncsvc").Start(ctx, "SyncService.DeleteOrder")
	defer span.End()

	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}

	s.ApplyDeleted(id)
	slog.Info("Order deleted", "order_id", id)

	return nil
}
