package config

import (
	"os"
	"testing"
	"time"

	"github.com/quantforge/forge/internal/core/domain"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_WEBHOOK_URL", "https://hooks.example.com/T000/B000")
	defer os.Unsetenv("TEST_WEBHOOK_URL")

	path := writeTempConfig(t, `
notify:
  webhook_url: ${TEST_WEBHOOK_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Notify.WebhookURL != "https://hooks.example.com/T000/B000" {
		t.Errorf("Expected webhook URL from env, got %s", cfg.Notify.WebhookURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
services:
  - name: quantconnect
    class: handshake
  - name: knowledge
    rate_limited: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.Backoff != 2*time.Second {
		t.Errorf("Unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Session.ShortTTL != 5*time.Minute || cfg.Session.LongTTL != time.Hour {
		t.Errorf("Unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Limiter.Capacity != 40 {
		t.Errorf("Expected default limiter capacity 40, got %d", cfg.Limiter.Capacity)
	}

	// Well-known services resolve to their default local ports.
	if cfg.Services[0].URL != "http://localhost:8000/mcp" {
		t.Errorf("Expected quantconnect URL http://localhost:8000/mcp, got %s", cfg.Services[0].URL)
	}
	if cfg.Services[1].URL != "http://localhost:8005/mcp" {
		t.Errorf("Expected knowledge URL http://localhost:8005/mcp, got %s", cfg.Services[1].URL)
	}
	if cfg.Services[1].Class != domain.ClassStandard {
		t.Errorf("Expected default class standard, got %s", cfg.Services[1].Class)
	}
}

func TestLoad_UnknownServiceWithoutPort(t *testing.T) {
	path := writeTempConfig(t, `
services:
  - name: custom
`)

	if _, err := Load(path); err == nil {
		t.Error("Expected error for unknown service without url or port")
	}
}
