package getorder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restomesh/kds-sync/internal/dal/orderstore"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	Get(id string) (order.Order, bool)
}

// store is an interface for the remote order store.
type store interface {
	GetOrder(ctx context.Context, id string) (order.Order, error)
}

// GetOrder handles the get-order request. The local collection is consulted
// first; an identity outside the current window falls through to the remote
// store.
func GetOrder(w http.ResponseWriter, r *http.Request, eng engine, st store) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "order id is required")

		return
	}

	if o, ok := eng.Get(id); ok {
		response.JSON(w, http.StatusOK, o)

		return
	}

	o, err := st.GetOrder(r.Context(), id)
	if err != nil {
		slog.Error("Error fetching order", "order_id", id, "error", err)
		if errors.Is(err, orderstore.ErrNotFound) {
			response.Error(w, http.StatusNotFound, err.Error())

			return
		}
		response.Error(w, http.StatusBadGateway, "operation failed, try again")

		return
	}

	response.JSON(w, http.StatusOK, o)
}
