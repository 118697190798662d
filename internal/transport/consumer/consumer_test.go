package consumer

import (
	"context"
	"testing"

	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	created []order.Order
	updated []order.Order
	deleted []string
}

func (f *fakeEngine) ApplyCreated(o order.Order) bool {
	f.created = append(f.created, o)

	return true
}

func (f *fakeEngine) ApplyUpdated(o order.Order) bool {
	f.updated = append(f.updated, o)

	return true
}

func (f *fakeEngine) ApplyDeleted(id string) bool {
	f.deleted = append(f.deleted, id)

	return true
}

const eventPayload = `{
	"id": "ord-1",
	"orderNumber": "0001",
	"status": "in-progress",
	"createdAt": "2026-08-30T12:00:00Z",
	"updatedAt": "2026-08-30T12:05:00Z"
}`

func TestHandleEventCreated(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent(EventOrderCreated, []byte(eventPayload)))

	require.Len(t, eng.created, 1)
	assert.Equal(t, "ord-1", eng.created[0].ID)
	assert.Equal(t, order.StatusInProgress, eng.created[0].Status)
}

func TestHandleEventUpdated(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent(EventOrderUpdated, []byte(eventPayload)))

	require.Len(t, eng.updated, 1)
	assert.Equal(t, "ord-1", eng.updated[0].ID)
	assert.Empty(t, eng.created)
}

func TestHandleEventDeleted(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent(EventOrderDeleted, []byte(`{"id": "ord-9"}`)))

	assert.Equal(t, []string{"ord-9"}, eng.deleted)
}

func TestHandleEventDeletedAcceptsFullPayload(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent(EventOrderDeleted, []byte(eventPayload)))

	assert.Equal(t, []string{"ord-1"}, eng.deleted)
}

func TestHandleEventMalformedPayload(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	assert.Error(t, c.handleEvent(EventOrderCreated, []byte(`not json`)))
	assert.Error(t, c.handleEvent(EventOrderCreated, []byte(`{"status": "cooked", "id": "x", "createdAt": "2026-08-30T12:00:00Z", "updatedAt": "2026-08-30T12:00:00Z"}`)))
	assert.Error(t, c.handleEvent(EventOrderDeleted, []byte(`{}`)))
	assert.Empty(t, eng.created)
	assert.Empty(t, eng.deleted)
}

func TestHandleEventUnknownTypeIgnored(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent("order-archived", []byte(eventPayload)))

	assert.Empty(t, eng.created)
	assert.Empty(t, eng.updated)
	assert.Empty(t, eng.deleted)
}

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, EventOrderCreated, eventTypeOf(amqp.Delivery{Type: EventOrderCreated, RoutingKey: "kitchen.order-updated"}))
	assert.Equal(t, EventOrderUpdated, eventTypeOf(amqp.Delivery{RoutingKey: "kitchen.order-updated"}))
	assert.Equal(t, "order-deleted", eventTypeOf(amqp.Delivery{RoutingKey: "order-deleted"}))
}

type fakeAcknowledger struct {
	acked  int
	nacked int
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked++

	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, _ bool) error {
	f.nacked++

	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, _ bool) error {
	return nil
}

func TestConsumeLoopReportsBrokerClose(t *testing.T) {
	eng := &fakeEngine{}
	ack := &fakeAcknowledger{}
	c := &Consumer{engine: eng, stop: make(chan struct{}), done: make(chan struct{})}

	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{Acknowledger: ack, Type: EventOrderCreated, Body: []byte(eventPayload)}
	msgs <- amqp.Delivery{Acknowledger: ack, Type: EventOrderDeleted, Body: []byte(`not json`)}
	close(msgs)

	err := c.consumeLoop(context.Background(), msgs)

	assert.ErrorIs(t, err, ErrPushChannelClosed)
	require.Len(t, eng.created, 1)
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 1, ack.nacked)

	select {
	case <-c.done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestConsumeLoopStopsCleanly(t *testing.T) {
	c := &Consumer{engine: &fakeEngine{}, stop: make(chan struct{}), done: make(chan struct{})}
	close(c.stop)

	assert.NoError(t, c.consumeLoop(context.Background(), make(chan amqp.Delivery)))

	c = &Consumer{engine: &fakeEngine{}, stop: make(chan struct{}), done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, c.consumeLoop(ctx, make(chan amqp.Delivery)))
}

func TestEventsApplyInArrivalOrder(t *testing.T) {
	eng := &fakeEngine{}
	c := &Consumer{engine: eng}

	require.NoError(t, c.handleEvent(EventOrderCreated, []byte(`{"id": "a", "status": "new", "createdAt": "2026-08-30T12:00:00Z", "updatedAt": "2026-08-30T12:00:00Z"}`)))
	require.NoError(t, c.handleEvent(EventOrderUpdated, []byte(`{"id": "a", "status": "in-progress", "createdAt": "2026-08-30T12:00:00Z", "updatedAt": "2026-08-30T12:01:00Z"}`)))
	require.NoError(t, c.handleEvent(EventOrderDeleted, []byte(`{"id": "a"}`)))

	require.Len(t, eng.created, 1)
	require.Len(t, eng.updated, 1)
	assert.Equal(t, order.StatusInProgress, eng.updated[0].Status)
	assert.Equal(t, []string{"a"}, eng.deleted)
}
