package updateorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	EditOrder(ctx context.Context, id string, upd order.Update) (order.Order, error)
}

// UpdateOrder handles the edit-order intent. The only-while-new policy is
// enforced by the presentation layer; the engine updates unconditionally.
func UpdateOrder(w http.ResponseWriter, r *http.Request, eng engine) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "order id is required")

		return
	}

	var upd order.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to decode request body")
		slog.Error("Error decoding request body for update order", "error", err)

		return
	}

	if err := upd.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		slog.Error("Error validating request body for update order", "error", err)

		return
	}

	updated, err := eng.EditOrder(r.Context(), id, upd)
	if err != nil {
		slog.Error("Error updating order", "order_id", id, "error", err)
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.Error(w, http.StatusBadRequest, err.Error())

			return
		}
		response.Error(w, http.StatusBadGateway, "operation failed, try again")

		return
	}

	response.JSON(w, http.StatusOK, updated)
}
