package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/payments")
	t.Setenv("PAYMENT_BACKEND_URL", "https://backend.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.HomeChain != "ethereum" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.AbuseWindow != 10*time.Minute || cfg.AbuseThreshold != 50 {
		t.Fatalf("unexpected abuse defaults %+v", cfg)
	}
	if cfg.AbuseBlockFor != 15*time.Minute || cfg.AbuseRetention != time.Hour {
		t.Fatalf("unexpected abuse durations %+v", cfg)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Fatalf("unexpected backend timeout %v", cfg.BackendTimeout)
	}
	if cfg.ReceiptsConfigured() {
		t.Fatal("receipts should be off without credentials")
	}
}

func TestLoadRequiresBackendAndDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PAYMENT_BACKEND_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") || !strings.Contains(err.Error(), "PAYMENT_BACKEND_URL") {
		t.Fatalf("error should name both missing keys: %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("ABUSE_WINDOW", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for ABUSE_WINDOW")
	}
}

func TestLoadTracingDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TracingEnabled {
		t.Fatal("tracing should be off by default")
	}
	if cfg.ServiceName != "payment-control-plane" || cfg.TraceSamplingRatio != 1.0 {
		t.Fatalf("unexpected tracing defaults %+v", cfg)
	}
}

func TestLoadTracingRequiresEndpoint(t *testing.T) {
	setRequired(t)
	t.Setenv("OTEL_TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "OTEL_EXPORTER_OTLP_ENDPOINT") {
		t.Fatalf("error should name the missing endpoint: %v", err)
	}
}

func TestLoadRejectsBadSamplingRatio(t *testing.T) {
	setRequired(t)
	t.Setenv("OTEL_TRACE_SAMPLING_RATIO", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for OTEL_TRACE_SAMPLING_RATIO")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HOME_CHAIN", "base")
	t.Setenv("ABUSE_BLOCK_THRESHOLD", "5")
	t.Setenv("PAYMENT_BACKEND_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HomeChain != "base" || cfg.AbuseThreshold != 5 || cfg.BackendTimeout != 10*time.Second {
		t.Fatalf("overrides not applied %+v", cfg)
	}
}
