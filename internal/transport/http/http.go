package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/restomesh/kds-sync/internal/dal/orderstore"
	"github.com/restomesh/kds-sync/internal/service/models/daterange"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/services/sessionsvc"
	"github.com/restomesh/kds-sync/internal/service/views"
	advancestatus "github.com/restomesh/kds-sync/internal/transport/http/advance_status"
	deleteorder "github.com/restomesh/kds-sync/internal/transport/http/delete_order"
	getorder "github.com/restomesh/kds-sync/internal/transport/http/get_order"
	kitchenboard "github.com/restomesh/kds-sync/internal/transport/http/kitchen_board"
	submitorder "github.com/restomesh/kds-sync/internal/transport/http/submit_order"
	updateorder "github.com/restomesh/kds-sync/internal/transport/http/update_order"
	"github.com/restomesh/kds-sync/pkg/http/middleware/trace"
	"github.com/restomesh/kds-sync/pkg/logger"
	"github.com/restomesh/kds-sync/pkg/response"
	"github.com/spf13/viper"
)

// HTTPTransport is the local API the presentation layer talks to: it reads
// derived views and issues mutation intents, never touching the collection
// directly.
type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	manager *sessionsvc.Manager
	store   *orderstore.Client
}

func NewHTTPTransport(manager *sessionsvc.Manager, store *orderstore.Client) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		manager: manager,
		store:   store,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/session", h.login)
		r.Delete("/session", h.logout)

		r.Get("/kitchen/board", h.kitchenBoard)
		r.Get("/kitchen/stats", h.kitchenStats)

		r.Post("/orders", h.submitOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/advance", h.advanceStatus)
		r.Patch("/orders/{id}", h.updateOrder)
		r.Delete("/orders/{id}", h.deleteOrder)
		r.Post("/orders/refresh", h.refresh)

		r.Get("/analytics", h.analytics)
	})
}

// session resolves the active session or writes a 401 outcome.
func (h *HTTPTransport) session(w http.ResponseWriter) (*sessionsvc.Session, bool) {
	sess, ok := h.manager.Current()
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")

		return nil, false
	}

	return sess, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string     `json:"sessionId"`
	User      order.User `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt,omitzero"`
}

func (h *HTTPTransport) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to decode request body")

		return
	}
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "email and password are required")

		return
	}

	sess, err := h.manager.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err)
		switch {
		case errors.Is(err, sessionsvc.ErrSessionActive):
			response.Error(w, http.StatusConflict, err.Error())
		case errors.Is(err, orderstore.ErrUnauthorized):
			response.Error(w, http.StatusUnauthorized, "invalid credentials")
		default:
			response.Error(w, http.StatusBadGateway, "login failed, try again")
		}

		return
	}

	response.JSON(w, http.StatusCreated, loginResponse{
		SessionID: sess.ID,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *HTTPTransport) logout(w http.ResponseWriter, _ *http.Request) {
	if err := h.manager.Logout(); err != nil {
		response.Error(w, http.StatusUnauthorized, err.Error())

		return
	}

	response.NoContent(w)
}

func (h *HTTPTransport) kitchenBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	kitchenboard.GetBoard(w, r, sess.Engine)
}

func (h *HTTPTransport) kitchenStats(w http.ResponseWriter, _ *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}

	stats, computedAt := sess.Tick.Latest()
	response.JSON(w, http.StatusOK, struct {
		Stats      views.Stats `json:"stats"`
		ComputedAt time.Time   `json:"computedAt"`
	}{Stats: stats, ComputedAt: computedAt})
}

func (h *HTTPTransport) submitOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	submitorder.SubmitOrder(w, r, sess.Engine)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	getorder.GetOrder(w, r, sess.Engine, h.store)
}

func (h *HTTPTransport) advanceStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	advancestatus.AdvanceStatus(w, r, sess.Engine)
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	updateorder.UpdateOrder(w, r, sess.Engine)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}
	deleteorder.DeleteOrder(w, r, sess.Engine)
}

// refresh re-fetches the collection for a new date range selector.
func (h *HTTPTransport) refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w)
	if !ok {
		return
	}

	rng, err := daterange.FromQuery(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}
	if rng.IsZero() {
		rng = sess.Engine.Range()
	}

	if err := sess.Engine.Refresh(r.Context(), rng); err != nil {
		slog.Error("Refresh failed", "error", err)
		response.Error(w, http.StatusBadGateway, "refresh failed, try again")

		return
	}

	response.NoContent(w)
}

func (h *HTTPTransport) analytics(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w); !ok {
		return
	}

	rng, err := daterange.FromQuery(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}

	summary, err := h.store.Analytics(r.Context(), rng)
	if err != nil {
		slog.Error("Analytics fetch failed", "error", err)
		response.Error(w, http.StatusBadGateway, "operation failed, try again")

		return
	}

	response.JSON(w, http.StatusOK, summary)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
