package deleteorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	DeleteOrder(ctx context.Context, id string) error
}

// DeleteOrder handles the delete-order intent.
func DeleteOrder(w http.ResponseWriter, r *http.Request, eng engine) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "order id is required")

		return
	}

	if err := eng.DeleteOrder(r.Context(), id); err != nil {
		slog.Error("Error deleting order", "order_id", id, "error", err)
		response.Error(w, http.StatusBadGateway, "operation failed, try again")

		return
	}

	response.NoContent(w)
}
