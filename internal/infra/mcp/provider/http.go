package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
)

const sessionHeader = "X-Session-Token"

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider struct {
	name     domain.ServiceID
	endpoint string

	httpClient  *http.Client
	probeClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewHTTPProvider creates a new HTTP-based provider. The timeout applies
// per request; callers bound individual attempts via context as well.
func NewHTTPProvider(name domain.ServiceID, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		probeClient: &http.Client{Timeout: 2 * time.Second},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
}

// Call makes a single JSON-RPC call. A non-empty token is attached via
// the session header, never embedded in the body.
func (p *HTTPProvider) Call(ctx context.Context, method string, params any, token string) (any, error) {
	start := time.Now()

	if params == nil {
		params = map[string]any{}
	}
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		p.recordFailure()
		return nil, fmt.Errorf("session rejected (401): %s", strings.TrimSpace(string(body)))
	}

	if resp.StatusCode != http.StatusOK {
		p.recordFailure()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rpcResp struct {
		Result any             `json:"result"`
		Error  *map[string]any `json:"error"`
	}

	if err := json.Unmarshal(body, &rpcResp); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		errMsg := "unknown error"
		if msg, ok := (*rpcResp.Error)["message"].(string); ok {
			errMsg = msg
		}
		p.recordFailure()
		return nil, fmt.Errorf("rpc error: %s", errMsg)
	}

	p.recordSuccess(time.Since(start))
	return rpcResp.Result, nil
}

// Probe performs a GET against the service's health endpoint.
func (p *HTTPProvider) Probe(ctx context.Context) domain.HealthSample {
	sample := domain.HealthSample{
		Service:   p.name,
		Timestamp: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.healthURL(), nil)
	if err != nil {
		sample.Status = ProbeDown
		return sample
	}

	start := time.Now()
	resp, err := p.probeClient.Do(req)
	if err != nil {
		sample.Status = ProbeDown
		return sample
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	sample.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0
	if resp.StatusCode == http.StatusOK {
		sample.Status = ProbeHealthy
	} else {
		sample.Status = ProbeDegraded
	}
	return sample
}

// GetName returns the provider's service name.
func (p *HTTPProvider) GetName() domain.ServiceID {
	return p.name
}

// GetHealth returns the provider's accumulated health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	p.probeClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) healthURL() string {
	base := strings.TrimSuffix(p.endpoint, "/mcp")
	return base + "/health"
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.successCount > 0 {
		p.health.Latency = p.totalLatency / time.Duration(p.successCount)
	}
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}

	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
