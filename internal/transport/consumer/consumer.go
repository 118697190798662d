package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/restomesh/kds-sync/internal/rabbitmq"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
)

// Event types delivered on the push channel, each carrying the full order
// payload (or the bare identity for deletes) with wire-format dates.
const (
	EventOrderCreated = "order-created"
	EventOrderUpdated = "order-updated"
	EventOrderDeleted = "order-deleted"
)

// ErrPushChannelClosed is returned by Run when the broker closes the delivery
// channel before shutdown was requested.
var ErrPushChannelClosed = errors.New("push channel closed")

// engine is the reconciliation surface push events are applied to. Push
// events are trusted unconditionally.
type engine interface {
	ApplyCreated(o order.Order) bool
	ApplyUpdated(o order.Order) bool
	ApplyDeleted(id string) bool
}

// Consumer is the push-channel client for one session. It owns a
// session-scoped exclusive queue; binding the queue to the kitchen routing
// key on start is the "join kitchen room" control message, unbinding on
// shutdown is "leave".
type Consumer struct {
	client      *rabbitmq.Client
	engine      engine
	queue       amqp.Queue
	exchange    string
	bindingKey  string
	consumerTag string
	stop        chan struct{}
	done        chan struct{}
}

// NewConsumer declares the event exchange and a session-scoped queue.
func NewConsumer(client *rabbitmq.Client, eng engine) (*Consumer, error) {
	exchange := viper.GetString("rabbitmq.exchange")
	if exchange == "" {
		exchange = "orders.events"
	}

	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    "topic",
		Durable: true,
	}); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// Server-named, exclusive, auto-delete: the queue lives exactly as long
	// as this session's connection.
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		AutoDelete: true,
		Exclusive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	bindingKey := viper.GetString("rabbitmq.binding_key")
	if bindingKey == "" {
		bindingKey = "kitchen.*"
	}

	return &Consumer{
		client:      client,
		engine:      eng,
		queue:       queue,
		exchange:    exchange,
		bindingKey:  bindingKey,
		consumerTag: "kds-" + uuid.NewString(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Run joins the kitchen room and consumes events until the context is
// cancelled or Shutdown is called. Events are dispatched strictly in arrival
// order; no reordering or batching.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.client.BindQueue(c.queue.Name, c.bindingKey, c.exchange); err != nil {
		return fmt.Errorf("join kitchen room: %w", err)
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue.Name,
		Consumer: c.consumerTag,
	})
	if err != nil {
		return err
	}

	slog.Info("Push channel connected", "queue", c.queue.Name, "binding", c.bindingKey)

	return c.consumeLoop(ctx, msgs)
}

// consumeLoop applies deliveries in arrival order until shutdown. A delivery
// channel closed by the broker mid-session means the session has lost its
// push feed, which is a failure, not a quiet stop.
func (c *Consumer) consumeLoop(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping push channel consumer")
			close(c.done)

			return nil
		case <-c.stop:
			slog.Info("Stopping push channel consumer")
			close(c.done)

			return nil
		case msg, ok := <-msgs:
			if !ok {
				slog.Error("Push channel closed by broker")
				close(c.done)

				return ErrPushChannelClosed
			}

			c.processMessage(ctx, msg)
		}
	}
}

// processMessage applies a single push event to the engine.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	_, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	eventType := eventTypeOf(msg)

	if err := c.handleEvent(eventType, msg.Body); err != nil {
		slog.Error("Failed to process push event", "event", eventType, "error", err)
		// Malformed payloads are rejected without requeueing; redelivery
		// cannot fix them.
		if err := msg.Nack(false, false); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)
	}
}

// handleEvent decodes an event payload and applies it to the engine.
func (c *Consumer) handleEvent(eventType string, body []byte) error {
	switch eventType {
	case EventOrderCreated:
		ord, err := decodeOrder(body)
		if err != nil {
			return err
		}
		if c.engine.ApplyCreated(ord) {
			slog.Info("Order created", "order_id", ord.ID, "order_number", ord.OrderNumber)
		}

	case EventOrderUpdated:
		ord, err := decodeOrder(body)
		if err != nil {
			return err
		}
		if !c.engine.ApplyUpdated(ord) {
			slog.Debug("Update for out-of-window order ignored", "order_id", ord.ID)
		}

	case EventOrderDeleted:
		id, err := decodeDeleted(body)
		if err != nil {
			return err
		}
		if c.engine.ApplyDeleted(id) {
			slog.Info("Order deleted", "order_id", id)
		}

	default:
		slog.Warn("Unknown push event type", "event", eventType)
	}

	return nil
}

// eventTypeOf reads the event type from the message type field, falling back
// to the last segment of the routing key.
func eventTypeOf(msg amqp.Delivery) string {
	if msg.Type != "" {
		return msg.Type
	}

	if i := strings.LastIndex(msg.RoutingKey, "."); i >= 0 {
		return msg.RoutingKey[i+1:]
	}

	return msg.RoutingKey
}

func decodeOrder(body []byte) (order.Order, error) {
	var wire order.Wire
	if err := json.Unmarshal(body, &wire); err != nil {
		return order.Order{}, err
	}

	return wire.Parse()
}

// decodeDeleted accepts either the bare identity form or a full order
// payload and returns the identity.
func decodeDeleted(body []byte) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", order.ErrMissingID
	}

	return payload.ID, nil
}

// Shutdown leaves the kitchen room and gracefully stops the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Leaving kitchen room")
	if err := c.client.UnbindQueue(c.queue.Name, c.bindingKey, c.exchange); err != nil {
		slog.Error("Failed to unbind queue", "error", err)
	}

	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Push channel consumer stopped")
	case <-time.After(10 * time.Second):
		slog.Warn("Push channel consumer shutdown timeout")
	}

	return nil
}
