package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Errorf("expected mongo store, got %q", cfg.StoreDriver)
	}
	if cfg.TokenTTL != 0 {
		t.Errorf("expected no token expiry, got %s", cfg.TokenTTL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected redis disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.Reconciler.Workers != 4 || cfg.Reconciler.MaxAttempts != 5 || cfg.Reconciler.Backoff != 500*time.Millisecond {
		t.Errorf("unexpected reconciler defaults: %+v", cfg.Reconciler)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s3cret",
		"STORE_DRIVER":       "memory",
		"TOKEN_TTL":          "1h",
		"REDIS_ADDR":         "localhost:6380",
		"REDIS_PASSWORD":     "hunter2",
		"RECONCILER_BACKOFF": "2s",
		"METRICS_ENABLED":    "false",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.StoreDriver)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %s", cfg.TokenTTL)
	}
	if cfg.Redis.Addr != "localhost:6380" {
		t.Errorf("unexpected redis addr %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("unexpected redis password %q", cfg.Redis.Password)
	}
	if cfg.Reconciler.Backoff != 2*time.Second {
		t.Errorf("unexpected backoff %s", cfg.Reconciler.Backoff)
	}
	if cfg.MetricsEnabled {
		t.Error("expected metrics disabled")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown store", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"}},
		{"negative ttl", map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "-1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
