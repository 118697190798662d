package syncsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/daterange"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/services/syncsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	listFn   func(ctx context.Context, rng daterange.DateRange) ([]order.Order, error)
	created  order.Order
	updated  order.Order
	err      error
	draft    order.Draft
	update   order.Update
	statusID string
	status   order.Status
	deleted  []string
}

func (f *fakeStore) ListOrders(ctx context.Context, rng daterange.DateRange) ([]order.Order, error) {
	if f.listFn != nil {
		return f.listFn(ctx, rng)
	}

	return nil, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, draft order.Draft) (order.Order, error) {
	f.draft = draft

	return f.created, f.err
}

func (f *fakeStore) UpdateOrder(_ context.Context, _ string, upd order.Update) (order.Order, error) {
	f.update = upd

	return f.updated, f.err
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	f.statusID = id
	f.status = status

	return f.updated, f.err
}

func (f *fakeStore) DeleteOrder(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)

	return f.err
}

func makeOrder(id string, status order.Status) order.Order {
	return order.Order{
		ID:          id,
		OrderNumber: "N-" + id,
		Status:      status,
		Priority:    order.PriorityNormal,
		CreatedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func newEngine(store *fakeStore) *syncsvc.SyncService {
	return syncsvc.MustNewSyncService(
		syncsvc.WithStoreClient(store),
		syncsvc.WithCreator(order.User{ID: "u1", Name: "Dana"}),
	)
}

func ids(orders []order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}

	return out
}

func TestRefreshReplacesCollection(t *testing.T) {
	store := &fakeStore{
		listFn: func(_ context.Context, _ daterange.DateRange) ([]order.Order, error) {
			return []order.Order{makeOrder("a", order.StatusNew), makeOrder("b", order.StatusReady)}, nil
		},
	}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("stale", order.StatusNew))

	require.NoError(t, engine.Refresh(context.Background(), daterange.FromPreset(daterange.PresetToday)))

	assert.Equal(t, []string{"a", "b"}, ids(engine.Snapshot()))
	assert.Equal(t, daterange.FromPreset(daterange.PresetToday), engine.Range())
	_, ok := engine.Get("stale")
	assert.False(t, ok)
}

func TestRefreshPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("store down")
	store := &fakeStore{
		listFn: func(_ context.Context, _ daterange.DateRange) ([]order.Order, error) {
			return nil, storeErr
		},
	}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("keep", order.StatusNew))

	err := engine.Refresh(context.Background(), daterange.FromPreset(daterange.PresetToday))

	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, []string{"keep"}, ids(engine.Snapshot()))
}

func TestRefreshDiscardsStaleFetch(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	store := &fakeStore{
		listFn: func(_ context.Context, rng daterange.DateRange) ([]order.Order, error) {
			if rng.Preset == daterange.PresetWeek {
				close(slowStarted)
				<-release

				return []order.Order{makeOrder("old", order.StatusNew)}, nil
			}

			return []order.Order{makeOrder("fresh", order.StatusNew)}, nil
		},
	}
	engine := newEngine(store)

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- engine.Refresh(context.Background(), daterange.FromPreset(daterange.PresetWeek))
	}()
	<-slowStarted

	// A later selection resolves while the earlier fetch is still in flight.
	require.NoError(t, engine.Refresh(context.Background(), daterange.FromPreset(daterange.PresetToday)))

	close(release)
	require.NoError(t, <-slowDone)

	// The late result must not clobber the newer selection.
	assert.Equal(t, []string{"fresh"}, ids(engine.Snapshot()))
	assert.Equal(t, daterange.FromPreset(daterange.PresetToday), engine.Range())
}

func TestApplyCreatedConvergesWithFetchInEitherOrder(t *testing.T) {
	o := makeOrder("a", order.StatusNew)

	// Event after fetch: the creation echo must not duplicate the entry.
	store := &fakeStore{
		listFn: func(_ context.Context, _ daterange.DateRange) ([]order.Order, error) {
			return []order.Order{o}, nil
		},
	}
	engine := newEngine(store)
	require.NoError(t, engine.Refresh(context.Background(), daterange.FromPreset(daterange.PresetToday)))
	assert.False(t, engine.ApplyCreated(o))
	assert.Equal(t, []string{"a"}, ids(engine.Snapshot()))

	// Event before any fetch result mentions the order.
	engine = newEngine(&fakeStore{})
	assert.True(t, engine.ApplyCreated(o))
	assert.False(t, engine.ApplyCreated(o))
	assert.Equal(t, []string{"a"}, ids(engine.Snapshot()))
}

func TestApplyUpdatedReplacesEntry(t *testing.T) {
	engine := newEngine(&fakeStore{})
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	updated := makeOrder("a", order.StatusInProgress)
	updated.Notes = "rush"
	assert.True(t, engine.ApplyUpdated(updated))

	got, ok := engine.Get("a")
	require.True(t, ok)
	assert.Equal(t, order.StatusInProgress, got.Status)
	assert.Equal(t, "rush", got.Notes)

	// Applying the same event again is a no-op in effect.
	assert.True(t, engine.ApplyUpdated(updated))
	assert.Equal(t, []string{"a"}, ids(engine.Snapshot()))
}

func TestApplyUpdatedIgnoresUnknownOrder(t *testing.T) {
	engine := newEngine(&fakeStore{})

	assert.False(t, engine.ApplyUpdated(makeOrder("ghost", order.StatusReady)))
	assert.Empty(t, engine.Snapshot())
}

func TestApplyDeletedRemovesAndReindexes(t *testing.T) {
	engine := newEngine(&fakeStore{})
	engine.ApplyCreated(makeOrder("a", order.StatusNew))
	engine.ApplyCreated(makeOrder("b", order.StatusNew))
	engine.ApplyCreated(makeOrder("c", order.StatusNew))

	assert.True(t, engine.ApplyDeleted("b"))
	assert.False(t, engine.ApplyDeleted("b"))

	assert.Equal(t, []string{"a", "c"}, ids(engine.Snapshot()))
	got, ok := engine.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", got.ID)
}

func TestSubmitOrderValidation(t *testing.T) {
	engine := newEngine(&fakeStore{})

	_, err := engine.SubmitOrder(context.Background(), order.Draft{})
	assert.ErrorIs(t, err, syncsvc.ErrEmptyOrder)

	noCreator := syncsvc.MustNewSyncService(syncsvc.WithStoreClient(&fakeStore{}))
	_, err = noCreator.SubmitOrder(context.Background(), order.Draft{
		OrderItems: []order.DraftItem{{MenuItemID: "m-1", Quantity: 1, PriceCents: 500}},
	})
	assert.ErrorIs(t, err, syncsvc.ErrNoCreator)
}

func TestSubmitOrderRejectsInvalidLineItems(t *testing.T) {
	store := &fakeStore{created: makeOrder("new-1", order.StatusNew)}
	engine := newEngine(store)

	for name, items := range map[string][]order.DraftItem{
		"negative quantity": {{MenuItemID: "m-1", Quantity: -2, PriceCents: 500}},
		"zero quantity":     {{MenuItemID: "m-1", Quantity: 0, PriceCents: 500}},
		"negative price":    {{MenuItemID: "m-1", Quantity: 1, PriceCents: -500}},
		"missing menu item": {{Quantity: 1, PriceCents: 500}},
	} {
		_, err := engine.SubmitOrder(context.Background(), order.Draft{
			TableNumber: "T1",
			OrderItems:  items,
		})
		assert.Error(t, err, name)
	}

	// Nothing reached the store and nothing entered the collection.
	assert.Empty(t, store.draft.OrderItems)
	assert.Empty(t, engine.Snapshot())
}

func TestSubmitOrderRequiresTableNumber(t *testing.T) {
	engine := newEngine(&fakeStore{})

	_, err := engine.SubmitOrder(context.Background(), order.Draft{
		OrderItems: []order.DraftItem{{MenuItemID: "m-1", Quantity: 1, PriceCents: 500}},
	})

	assert.Error(t, err)
}

func TestEditOrderRejectsInvalidLineItems(t *testing.T) {
	store := &fakeStore{}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	upd := order.Update{
		OrderItems: []order.DraftItem{{MenuItemID: "m-1", Quantity: -1, PriceCents: 400}},
	}
	_, err := engine.EditOrder(context.Background(), "a", upd)

	assert.Error(t, err)
	assert.Empty(t, store.update.OrderItems)
}

func TestSubmitOrderComputesTotalAndAppendsOnSuccess(t *testing.T) {
	created := makeOrder("new-1", order.StatusNew)
	store := &fakeStore{created: created}
	engine := newEngine(store)

	got, err := engine.SubmitOrder(context.Background(), order.Draft{
		TableNumber: "T3",
		OrderItems: []order.DraftItem{
			{MenuItemID: "m-1", Quantity: 2, PriceCents: 1200},
			{MenuItemID: "m-2", Quantity: 1, PriceCents: 800},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, int64(3200), store.draft.TotalPriceCents)
	assert.Equal(t, order.PriorityNormal, store.draft.Priority)
	_, ok := engine.Get("new-1")
	assert.True(t, ok)
}

func TestSubmitOrderFailureLeavesCollectionUntouched(t *testing.T) {
	store := &fakeStore{err: errors.New("rejected")}
	engine := newEngine(store)

	_, err := engine.SubmitOrder(context.Background(), order.Draft{
		TableNumber: "T1",
		OrderItems:  []order.DraftItem{{MenuItemID: "m-1", Quantity: 1, PriceCents: 500}},
	})

	assert.Error(t, err)
	assert.Empty(t, engine.Snapshot())
}

func TestAdvanceStatusDerivesNextStatus(t *testing.T) {
	updated := makeOrder("a", order.StatusInProgress)
	store := &fakeStore{updated: updated}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	got, err := engine.AdvanceStatus(context.Background(), "a")

	require.NoError(t, err)
	assert.Equal(t, "a", store.statusID)
	assert.Equal(t, order.StatusInProgress, store.status)
	assert.Equal(t, order.StatusInProgress, got.Status)

	local, ok := engine.Get("a")
	require.True(t, ok)
	assert.Equal(t, order.StatusInProgress, local.Status)
}

func TestAdvanceStatusAppliesServerAuthority(t *testing.T) {
	// The store may land on a different status than requested; whatever it
	// returns wins locally.
	updated := makeOrder("a", order.StatusReady)
	store := &fakeStore{updated: updated}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	got, err := engine.AdvanceStatus(context.Background(), "a")

	require.NoError(t, err)
	assert.Equal(t, order.StatusInProgress, store.status)
	assert.Equal(t, order.StatusReady, got.Status)

	local, _ := engine.Get("a")
	assert.Equal(t, order.StatusReady, local.Status)
}

func TestAdvanceStatusErrors(t *testing.T) {
	engine := newEngine(&fakeStore{})

	_, err := engine.AdvanceStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, syncsvc.ErrUnknownOrder)

	engine.ApplyCreated(makeOrder("done", order.StatusCompleted))
	_, err = engine.AdvanceStatus(context.Background(), "done")
	assert.ErrorIs(t, err, syncsvc.ErrTerminalStatus)
}

func TestAdvanceStatusFailureLeavesStatusUntouched(t *testing.T) {
	store := &fakeStore{err: errors.New("conflict")}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	_, err := engine.AdvanceStatus(context.Background(), "a")

	assert.Error(t, err)
	local, _ := engine.Get("a")
	assert.Equal(t, order.StatusNew, local.Status)
}

func TestEditOrderRecomputesTotalWhenItemsChange(t *testing.T) {
	updated := makeOrder("a", order.StatusNew)
	store := &fakeStore{updated: updated}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	upd := order.Update{
		OrderItems: []order.DraftItem{{MenuItemID: "m-1", Quantity: 3, PriceCents: 400}},
	}
	_, err := engine.EditOrder(context.Background(), "a", upd)

	require.NoError(t, err)
	require.NotNil(t, store.update.TotalPriceCents)
	assert.Equal(t, int64(1200), *store.update.TotalPriceCents)
}

func TestDeleteOrderRemovesLocallyOnSuccessOnly(t *testing.T) {
	store := &fakeStore{}
	engine := newEngine(store)
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	require.NoError(t, engine.DeleteOrder(context.Background(), "a"))
	assert.Equal(t, []string{"a"}, store.deleted)
	assert.Empty(t, engine.Snapshot())

	store.err = errors.New("denied")
	engine.ApplyCreated(makeOrder("b", order.StatusNew))
	assert.Error(t, engine.DeleteOrder(context.Background(), "b"))
	_, ok := engine.Get("b")
	assert.True(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	engine := newEngine(&fakeStore{})
	engine.ApplyCreated(makeOrder("a", order.StatusNew))

	snapshot := engine.Snapshot()
	snapshot[0].Status = order.StatusCompleted

	local, _ := engine.Get("a")
	assert.Equal(t, order.StatusNew, local.Status)
}
