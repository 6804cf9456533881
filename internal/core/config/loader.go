package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/quantforge/forge/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	for i := range cfg.Services {
		s := &cfg.Services[i]
		if s.Name == "" {
			return nil, fmt.Errorf("service %d: name is required", i)
		}
		if s.URL == "" {
			port := s.Port
			if port == 0 {
				port = domain.DefaultServicePorts[s.Name]
			}
			if port == 0 {
				return nil, fmt.Errorf("service %s: url or port is required", s.Name)
			}
			s.URL = fmt.Sprintf("http://localhost:%d/mcp", port)
			s.Port = port
		}
		if s.Class == "" {
			s.Class = domain.ClassStandard
		}
		if s.Transport == "" {
			s.Transport = "http"
		}
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Limiter.Capacity == 0 {
		cfg.Limiter.Capacity = 40
	}
	if cfg.Limiter.RefillRate == 0 {
		cfg.Limiter.RefillRate = 40.0 / 60.0
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Backoff == 0 {
		cfg.Retry.Backoff = 2 * time.Second
	}
	if cfg.Retry.AttemptTimeout == 0 {
		cfg.Retry.AttemptTimeout = 30 * time.Second
	}
	if cfg.Session.ShortTTL == 0 {
		cfg.Session.ShortTTL = 5 * time.Minute
	}
	if cfg.Session.LongTTL == 0 {
		cfg.Session.LongTTL = time.Hour
	}
}
