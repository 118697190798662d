package advancestatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/services/syncsvc"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	AdvanceStatus(ctx context.Context, id string) (order.Order, error)
}

// AdvanceStatus handles the advance-status intent. The target status is
// derived by the engine from the order's current status; the caller never
// chooses it.
func AdvanceStatus(w http.ResponseWriter, r *http.Request, eng engine) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "order id is required")

		return
	}

	updated, err := eng.AdvanceStatus(r.Context(), id)
	if err != nil {
		slog.Error("Error advancing order status", "order_id", id, "error", err)
		switch {
		case errors.Is(err, syncsvc.ErrUnknownOrder):
			response.Error(w, http.StatusNotFound, err.Error())
		case errors.Is(err, syncsvc.ErrTerminalStatus):
			response.Error(w, http.StatusConflict, err.Error())
		default:
			response.Error(w, http.StatusBadGateway, "operation failed, try again")
		}

		return
	}

	response.JSON(w, http.StatusOK, updated)
}
