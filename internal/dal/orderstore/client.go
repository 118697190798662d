package orderstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/restomesh/kds-sync/internal/service/models/analytics"
	"github.com/restomesh/kds-sync/internal/service/models/daterange"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

var (
	ErrUnauthorized = errors.New("orderstore: unauthorized")
	ErrNotFound     = errors.New("orderstore: not found")
)

// Client talks to the Remote Order Store REST API. It is the only component
// that performs durable order mutations; every call carries the session's
// bearer token once one is set.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.RWMutex
	token string
}

// MustNewClient creates a new Client from viper configuration.
func MustNewClient() *Client {
	baseURL := viper.GetString("orderstore.base_url")
	if baseURL == "" {
		panic("orderstore.base_url is not set in config")
	}

	timeoutSeconds := viper.GetInt("orderstore.timeout_seconds")
	if timeoutSeconds == 0 {
		timeoutSeconds = 10
	}

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetToken installs the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// LoginResult is the remote store's response to a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	User  order.User `json:"user"`
}

// Login authenticates against the remote store and returns the session token
// together with the authenticated user. The token is not installed on the
// client; that is the session manager's call to make.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &result); err != nil {
		return LoginResult{}, err
	}

	return result, nil
}

// ListOrders fetches all orders whose creation time falls in the given range.
func (c *Client) ListOrders(ctx context.Context, rng daterange.DateRange) ([]order.Order, error) {
	var wires []order.Wire
	if err := c.do(ctx, http.MethodGet, "/orders", rng.Query(), nil, &wires); err != nil {
		return nil, err
	}

	return parseOrders(wires)
}

// GetOrder fetches a single order by identity.
func (c *Client) GetOrder(ctx context.Context, id string) (order.Order, error) {
	var wire order.Wire
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &wire); err != nil {
		return order.Order{}, err
	}

	return wire.Parse()
}

// CreateOrder submits a draft and returns the canonical persisted order with
// its server-assigned identity and sequence number.
func (c *Client) CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	var wire order.Wire
	if err := c.do(ctx, http.MethodPost, "/orders", nil, draft, &wire); err != nil {
		return order.Order{}, err
	}

	return wire.Parse()
}

// UpdateOrder applies a partial update and returns the full canonical order.
func (c *Client) UpdateOrder(ctx context.Context, id string, upd order.Update) (order.Order, error) {
	var wire order.Wire
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id), nil, upd, &wire); err != nil {
		return order.Order{}, err
	}

	return wire.Parse()
}

// UpdateOrderStatus is the convenience form of UpdateOrder restricted to the
// status field.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	body := struct {
		Status order.Status `json:"status"`
	}{Status: status}

	var wire order.Wire
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id), nil, body, &wire); err != nil {
		return order.Order{}, err
	}

	return wire.Parse()
}

// DeleteOrder removes an order from the remote store.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil, nil)
}

// Analytics fetches the aggregate report for a date range.
func (c *Client) Analytics(ctx context.Context, rng daterange.DateRange) (analytics.Summary, error) {
	var summary analytics.Summary
	if err := c.do(ctx, http.MethodGet, "/analytics", rng.Query(), nil, &summary); err != nil {
		return analytics.Summary{}, err
	}

	return summary, nil
}

// do performs a single HTTP exchange with the remote store.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := otel.Tracer("orderstore").Start(ctx, "OrderStore "+method+" "+path)
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("orderstore: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("orderstore: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("orderstore: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("orderstore: %s %s: %s", method, path, errorReason(resp))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("orderstore: decode response: %w", err)
	}

	return nil
}

// errorReason extracts the store's error message, falling back to the HTTP
// status text.
func errorReason(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	return resp.Status
}

func parseOrders(wires []order.Wire) ([]order.Order, error) {
	orders := make([]order.Order, 0, len(wires))
	for _, wire := range wires {
		parsed, err := wire.Parse()
		if err != nil {
			return nil, err
		}
		orders = append(orders, parsed)
	}

	return orders, nil
}
