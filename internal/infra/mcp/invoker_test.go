package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/mcp/provider"
	"github.com/quantforge/forge/internal/infra/mcp/session"
	"github.com/quantforge/forge/internal/infra/ratelimit"
)

// scriptedProvider returns queued errors before succeeding, and records
// every call it sees (handshakes included).
type scriptedProvider struct {
	name     domain.ServiceID
	failures []error
	result   any
	calls    []string
}

func (s *scriptedProvider) GetName() domain.ServiceID { return s.name }

func (s *scriptedProvider) Call(ctx context.Context, method string, params any, token string) (any, error) {
	s.calls = append(s.calls, method)
	if method == "notifications/initialized" {
		return map[string]any{"sessionId": "tok"}, nil
	}
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}
	return s.result, nil
}

func (s *scriptedProvider) Probe(ctx context.Context) domain.HealthSample {
	return domain.HealthSample{Service: s.name, Status: provider.ProbeHealthy}
}

func (s *scriptedProvider) GetHealth() provider.HealthStatus { return provider.HealthStatus{} }
func (s *scriptedProvider) Close() error                     { return nil }

func (s *scriptedProvider) countMethod(method string) int {
	n := 0
	for _, m := range s.calls {
		if m == method {
			n++
		}
	}
	return n
}

func newTestInvoker(p *scriptedProvider, limiter *ratelimit.Limiter) (*Invoker, *session.Registry) {
	reg := session.NewRegistry(session.Config{})
	reg.Register(p, domain.ClassStandard)

	inv := NewInvoker(reg, limiter, RetryConfig{
		MaxAttempts:    3,
		Backoff:        time.Millisecond,
		AttemptTimeout: time.Second,
	})
	inv.AddProvider(p, limiter != nil)
	return inv, reg
}

func TestInvoke_RetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		name: "knowledge",
		failures: []error{
			errors.New("timeout"),
			errors.New("connection reset by peer"),
		},
		result: map[string]any{"ok": true},
	}
	inv, _ := newTestInvoker(p, nil)

	result, err := inv.Invoke(context.Background(), "knowledge", "search", map[string]any{"q": "momentum"}, 3)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result")
	}
	if got := p.countMethod("search"); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestInvoke_TerminalFailureAfterExhaustion(t *testing.T) {
	p := &scriptedProvider{
		name: "github",
		failures: []error{
			errors.New("500 internal error"),
			errors.New("500 internal error"),
			errors.New("500 internal error"),
		},
	}
	inv, _ := newTestInvoker(p, nil)

	_, err := inv.Invoke(context.Background(), "github", "create_pr", nil, 3)
	if err == nil {
		t.Fatal("Expected terminal error")
	}

	var terminal *TerminalError
	if !errors.As(err, &terminal) {
		t.Fatalf("Expected TerminalError, got %T: %v", err, err)
	}
	if terminal.Attempts != 3 {
		t.Errorf("Expected 3 attempts recorded, got %d", terminal.Attempts)
	}
	if terminal.Unwrap() == nil {
		t.Error("Expected wrapped last failure")
	}
}

func TestInvoke_SessionErrorEvicts(t *testing.T) {
	p := &scriptedProvider{
		name:     "quantconnect",
		failures: []error{errors.New("session expired")},
		result:   "compiled",
	}
	inv, _ := newTestInvoker(p, nil)

	result, err := inv.Invoke(context.Background(), "quantconnect", "compile", nil, 3)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result != "compiled" {
		t.Errorf("Unexpected result %v", result)
	}

	// Handshake, failing call, re-handshake after eviction, retry.
	if got := p.countMethod("notifications/initialized"); got != 2 {
		t.Errorf("Expected re-handshake after session eviction, got %d handshakes", got)
	}
	if got := p.countMethod("compile"); got != 2 {
		t.Errorf("Expected 2 compile attempts, got %d", got)
	}
}

func TestInvoke_NonSessionErrorKeepsSession(t *testing.T) {
	p := &scriptedProvider{
		name:     "memory",
		failures: []error{errors.New("timeout")},
		result:   "stored",
	}
	inv, _ := newTestInvoker(p, nil)

	if _, err := inv.Invoke(context.Background(), "memory", "store", nil, 3); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got := p.countMethod("notifications/initialized"); got != 1 {
		t.Errorf("Expected single handshake for transient failure, got %d", got)
	}
}

func TestInvoke_UnknownService(t *testing.T) {
	inv := NewInvoker(session.NewRegistry(session.Config{}), nil, RetryConfig{})
	if _, err := inv.Invoke(context.Background(), "ghost", "x", nil, 1); err == nil {
		t.Error("Expected error for unregistered service")
	}
}

func TestInvoke_RateLimited(t *testing.T) {
	p := &scriptedProvider{name: "knowledge", result: "ok"}
	limiter := ratelimit.New(100, 100)
	inv, _ := newTestInvoker(p, limiter)

	for i := 0; i < 3; i++ {
		if _, err := inv.Invoke(context.Background(), "knowledge", "search", nil, 1); err != nil {
			t.Fatalf("Invoke %d failed: %v", i, err)
		}
	}

	if stats := limiter.Stats(); stats.RequestsLastMinute != 3 {
		t.Errorf("Expected 3 limiter grants, got %d", stats.RequestsLastMinute)
	}
}

func TestIsSessionError(t *testing.T) {
	tests := []struct {
		err    error
		expect bool
	}{
		{errors.New("Session expired"), true},
		{errors.New("session rejected (401)"), true},
		{errors.New("invalid session token"), true},
		{errors.New("timeout"), false},
		{errors.New("rate limit exceeded"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsSessionError(tt.err); got != tt.expect {
			t.Errorf("IsSessionError(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}
