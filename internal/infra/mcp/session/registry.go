// Package session owns per-service authentication tokens and their expiry.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quantforge/forge/internal/build/metrics"
	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/mcp/provider"
)

const handshakeTimeout = 10 * time.Second

// Config holds session TTL policy.
type Config struct {
	ShortTTL time.Duration `yaml:"short_ttl"` // handshake-class services
	LongTTL  time.Duration `yaml:"long_ttl"`  // everything else, and fail-open caching
	// FailClosed converts a failed handshake into an error instead of
	// caching an unauthenticated session.
	FailClosed bool `yaml:"fail_closed"`
}

type registered struct {
	provider provider.Provider
	class    domain.ServiceClass
}

// Registry caches one session per service and re-handshakes on expiry.
// Sessions are replaced, never mutated in place.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[domain.ServiceID]*domain.Session
	services map[domain.ServiceID]registered
	log      *slog.Logger

	now func() time.Time
}

// NewRegistry creates a registry with the given TTL policy.
func NewRegistry(cfg Config) *Registry {
	if cfg.ShortTTL == 0 {
		cfg.ShortTTL = 5 * time.Minute
	}
	if cfg.LongTTL == 0 {
		cfg.LongTTL = time.Hour
	}
	return &Registry{
		cfg:      cfg,
		sessions: make(map[domain.ServiceID]*domain.Session),
		services: make(map[domain.ServiceID]registered),
		log:      slog.Default(),
		now:      time.Now,
	}
}

// Register adds a service and its transport to the registry.
func (r *Registry) Register(p provider.Provider, class domain.ServiceClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[p.GetName()] = registered{provider: p, class: class}
}

// EnsureValid returns a valid token for the service, performing the
// handshake on first use or after expiry. An empty token with a nil error
// means "proceed without auth header" (fail-open policy after a failed
// handshake, unless FailClosed is set).
func (r *Registry) EnsureValid(ctx context.Context, id domain.ServiceID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && !s.Expired(r.now()) {
		return s.Token, nil
	}

	s, err := r.initSession(ctx, id)
	if err != nil {
		return "", err
	}
	r.sessions[id] = s
	return s.Token, nil
}

// Evict removes the cached session, forcing the next EnsureValid call to
// re-handshake. Used by the invoker on authentication failure.
func (r *Registry) Evict(id domain.ServiceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		metrics.SessionEvictions.WithLabelValues(string(id)).Inc()
	}
}

// Warm performs the initial handshake for every registered service.
// Failures are logged, not returned; the fail-open policy applies.
func (r *Registry) Warm(ctx context.Context) {
	r.mu.Lock()
	ids := make([]domain.ServiceID, 0, len(r.services))
	for id := range r.services {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if _, err := r.EnsureValid(ctx, id); err != nil {
			r.log.Warn("Session warm-up failed", "service", id, "error", err)
		}
	}
}

// initSession performs the handshake synchronously. Called with the lock
// held; concurrent callers for any service wait for the handshake.
func (r *Registry) initSession(ctx context.Context, id domain.ServiceID) (*domain.Session, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, &UnknownServiceError{Service: id}
	}

	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	result, err := svc.provider.Call(hsCtx, "notifications/initialized", map[string]any{}, "")
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues(string(id), "failure").Inc()
		if r.cfg.FailClosed {
			return nil, &HandshakeError{Service: id, Err: err}
		}
		// Fail open, but throttled: cache an unauthenticated session
		// with the long TTL to suppress hot-retry storms.
		r.log.Warn("Session init failed, caching unauthenticated session",
			"service", id, "ttl", r.cfg.LongTTL, "error", err)
		return &domain.Session{
			ServiceID: id,
			ExpiresAt: r.now().Add(r.cfg.LongTTL),
		}, nil
	}

	metrics.SessionRefreshes.WithLabelValues(string(id), "success").Inc()

	ttl := r.cfg.LongTTL
	if svc.class == domain.ClassHandshake {
		ttl = r.cfg.ShortTTL
	}

	return &domain.Session{
		ServiceID: id,
		Token:     extractToken(result),
		ExpiresAt: r.now().Add(ttl),
	}, nil
}

func extractToken(result any) string {
	m, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	token, _ := m["sessionId"].(string)
	return token
}
