package sessionsvc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/restomesh/kds-sync/internal/dal/orderstore"
	"github.com/restomesh/kds-sync/internal/rabbitmq"
	"github.com/restomesh/kds-sync/internal/service/models/daterange"
	"github.com/restomesh/kds-sync/internal/service/models/order"
	"github.com/restomesh/kds-sync/internal/service/services/syncsvc"
	"github.com/restomesh/kds-sync/internal/transport/consumer"
	"github.com/restomesh/kds-sync/internal/worker/boardtick"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrSessionActive = errors.New("a session is already active")
)

// Session bundles everything scoped to one authenticated user: the
// reconciliation engine, the push-channel consumer and the board tick worker.
// It is constructed at login and torn down at logout; nothing about it is
// ambient or static.
type Session struct {
	ID        string
	User      order.User
	ExpiresAt time.Time
	Engine    *syncsvc.SyncService
	Tick      *boardtick.Worker

	consumer *consumer.Consumer
	rabbit   *rabbitmq.Client
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// Manager owns the session lifecycle. At most one session is active at a
// time; the bearer token lives on the store client only while the session
// does.
type Manager struct {
	store *orderstore.Client

	mu      sync.Mutex
	current *Session
}

// NewManager creates a new session manager.
func NewManager(store *orderstore.Client) *Manager {
	return &Manager{store: store}
}

// Login authenticates against the remote store and brings up the session's
// engine, push channel and tick worker. The initial fetch uses the configured
// default date range preset.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrSessionActive
	}

	result, err := m.store.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.store.SetToken(result.Token)

	expiresAt := tokenExpiry(result.Token)

	engine := syncsvc.MustNewSyncService(
		syncsvc.WithStoreClient(m.store),
		syncsvc.WithCreator(result.User),
	)

	if err := engine.Refresh(ctx, defaultRange()); err != nil {
		m.store.ClearToken()

		return nil, err
	}

	rabbit, err := rabbitmq.NewClient()
	if err != nil {
		m.store.ClearToken()

		return nil, err
	}

	cons, err := consumer.NewConsumer(rabbit, engine)
	if err != nil {
		m.store.ClearToken()
		if closeErr := rabbit.Close(); closeErr != nil {
			slog.Error("RabbitMQ connection close error", "error", closeErr)
		}

		return nil, err
	}

	tick := boardtick.NewWorker(engine)

	sessCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(sessCtx)
	group.Go(func() error {
		return cons.Run(groupCtx)
	})
	group.Go(func() error {
		tick.Start(groupCtx)

		return nil
	})

	session := &Session{
		ID:        uuid.NewString(),
		User:      result.User,
		ExpiresAt: expiresAt,
		Engine:    engine,
		Tick:      tick,
		consumer:  cons,
		rabbit:    rabbit,
		cancel:    cancel,
		group:     group,
	}
	m.current = session

	slog.Info("Session started", "session_id", session.ID, "user", result.User.Email)

	return session, nil
}

// Logout tears the active session down: leave the kitchen room, stop the
// workers, close the push connection, drop the token.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}
	session := m.current
	m.current = nil

	if err := session.consumer.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	}
	session.cancel()
	if err := session.group.Wait(); err != nil {
		slog.Error("Session worker error", "error", err)
	}
	if err := session.rabbit.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	}
	m.store.ClearToken()

	slog.Info("Session ended", "session_id", session.ID)

	return nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current, m.current != nil
}

func defaultRange() daterange.DateRange {
	preset, err := daterange.ParsePreset(viper.GetString("kitchen.default_preset"))
	if err != nil {
		preset = daterange.PresetToday
	}

	return daterange.FromPreset(preset)
}

// tokenExpiry reads the expiry claim from the session token without
// verifying the signature; verification is the server's job, the client only
// needs the deadline. A non-JWT or claimless token yields a zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}

	return claims.ExpiresAt.Time
}
