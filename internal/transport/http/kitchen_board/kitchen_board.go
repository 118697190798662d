package kitchenboard

import (
	"net/http"
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/views"
	"github.com/restomesh/kds-sync/pkg/response"
)

// engine is an interface for the reconciliation engine.
type engine interface {
	Snapshot() []order.Order
}

// GetBoard handles the kitchen board request: a filtered, sorted ticket list
// with aggregate stats, derived from the current collection snapshot.
func GetBoard(w http.ResponseWriter, r *http.Request, eng engine) {
	query := r.URL.Query()

	filter, err := views.ParseFilter(query.Get("status"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}

	mode, err := views.ParseSortMode(query.Get("sort"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())

		return
	}

	board := views.Build(eng.Snapshot(), filter, mode, time.Now())
	response.JSON(w, http.StatusOK, board)
}
