package submitorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/services/syncsvc"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error)
}

// SubmitOrder handles the submit-order intent.
func SubmitOrder(w http.ResponseWriter, r *http.Request, eng engine) {
	var draft order.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		response.Error(w, http.StatusBadRequest, "failed to decode request body")
		slog.Error("Error decoding request body for submit order", "error", err)

		return
	}

	if err := draft.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		slog.Error("Error validating request body for submit order", "error", err)

		return
	}

	created, err := eng.SubmitOrder(r.Context(), draft)
	if err != nil {
		slog.Error("Error submitting order", "error", err)
		var validationErrs validator.ValidationErrors
		switch {
		case errors.Is(err, syncsvc.ErrEmptyOrder), errors.Is(err, syncsvc.ErrNoCreator):
			response.Error(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &validationErrs):
			response.Error(w, http.StatusBadRequest, err.Error())
		default:
			response.Error(w, http.StatusBadGateway, "operation failed, try again")
		}

		return
	}

	response.JSON(w, http.StatusCreated, created)
}
