package config

import (
	"testing"
	"time"
)

func TestLoad_TrimsAndFallsBack(t *testing.T) {
	t.Setenv("ENV", "local")
	t.Setenv("SERVICE_NAME", "ward-extractor")
	t.Setenv("OPENDOTA_BASE_URL", "https://api.opendota.com/api/")
	t.Setenv("OPENDOTA_USER_AGENT", "CnDotaPlan/1.0")
	t.Setenv("HTTP_TIMEOUT_SEC", "abc")
	t.Setenv("SINKS", "")
	t.Setenv("METRICS_PORT", "")

	cfg := Load("ignored")
	if cfg.ServiceName != "ward-extractor" {
		t.Fatalf("unexpected service %q", cfg.ServiceName)
	}
	if cfg.OpenDotaBaseURL != "https://api.opendota.com/api" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.OpenDotaBaseURL)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Fatalf("invalid timeout must fall back to 60s, got %v", cfg.HTTPTimeout)
	}
	if len(cfg.Sinks) != 0 {
		t.Fatalf("expected no sinks, got %v", cfg.Sinks)
	}
	if cfg.MetricsPort != "" {
		t.Fatalf("CLIs must not default a metrics port, got %q", cfg.MetricsPort)
	}
}

func TestLoad_WardServicePorts(t *testing.T) {
	t.Setenv("SERVICE_NAME", "ward-service")
	t.Setenv("HTTP_PORT", "8082")
	t.Setenv("METRICS_PORT", "9095")

	cfg := Load("ward-service")
	if cfg.HTTPPort != "8082" || cfg.MetricsPort != "9095" {
		t.Fatalf("unexpected ports %q %q", cfg.HTTPPort, cfg.MetricsPort)
	}
}

func TestSplitListAndHasSink(t *testing.T) {
	cfg := Config{Sinks: splitList(" Kafka, ,redis ")}
	if len(cfg.Sinks) != 2 {
		t.Fatalf("unexpected sinks %v", cfg.Sinks)
	}
	if !cfg.HasSink("kafka") || !cfg.HasSink("redis") || cfg.HasSink("nats") {
		t.Fatalf("HasSink mismatch for %v", cfg.Sinks)
	}
}
