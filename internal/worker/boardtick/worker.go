package boardtick

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/views"
	"github.com/spf13/viper"
)

// engine is the read-only slice of the reconciliation engine the worker needs.
type engine interface {
	Snapshot() []order.Order
}

// Worker re-evaluates the time-derived board data on a fixed interval. It
// never touches the authoritative collection; each tick reads a snapshot and
// recomputes the derived stats.
type Worker struct {
	engine   engine
	interval time.Duration
	stopCh   chan struct{}

	mu         sync.RWMutex
	stats      views.Stats
	computedAt time.Time
}

// NewWorker creates a new board tick worker.
func NewWorker(eng engine) *Worker {
	intervalSeconds := viper.GetInt("kitchen.tick_interval_seconds")
	if intervalSeconds == 0 {
		intervalSeconds = 30
	}

	return &Worker{
		engine:   eng,
		interval: time.Duration(intervalSeconds) * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the tick loop. It blocks until the context is cancelled or
// Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Board tick worker started", "interval", w.interval)

	w.recompute()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Board tick worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Board tick worker stopped")

			return
		case <-ticker.C:
			w.recompute()
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// Latest returns the stats computed on the most recent tick and when they
// were computed.
func (w *Worker) Latest() (views.Stats, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.stats, w.computedAt
}

func (w *Worker) recompute() {
	now := time.Now()
	stats := views.BuildStats(w.engine.Snapshot(), now)

	w.mu.Lock()
	previous := w.stats
	w.stats = stats
	w.computedAt = now
	w.mu.Unlock()

	if stats.Overdue > 0 && stats.Overdue != previous.Overdue {
		slog.Warn("Orders overdue", "count", stats.Overdue, "active", stats.Total)
	}
}
