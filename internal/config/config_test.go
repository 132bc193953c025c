package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.JWTIssuer != "dataroom-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "dataroom-auth")
	}
	if cfg.JWTAudience != "dataroom-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "dataroom-api")
	}
	if cfg.NDADefaultDeadline != "7days" {
		t.Errorf("NDADefaultDeadline = %q, want %q", cfg.NDADefaultDeadline, "7days")
	}
	if cfg.EventsKafkaTopic != "dataroom-events" {
		t.Errorf("EventsKafkaTopic = %q, want default", cfg.EventsKafkaTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("BASE_URL", "https://rooms.example.com/")
	os.Setenv("NDA_DEFAULT_DEADLINE", "30days")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.BaseURL != "https://rooms.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.NDADefaultDeadline != "30days" {
		t.Errorf("NDADefaultDeadline = %q, want %q", cfg.NDADefaultDeadline, "30days")
	}
}

func TestLoad_InvalidDeadlinePolicy(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("NDA_DEFAULT_DEADLINE", "14days")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject an unknown NDA_DEFAULT_DEADLINE")
	}
}

func TestAccessTTL(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	cfg = &Config{JWTAccessTTL: "bogus"}
	if got := cfg.AccessTTL(); got != time.Hour {
		t.Errorf("AccessTTL = %v, want fallback 1h", got)
	}
}

func TestEventsKafkaBrokersList(t *testing.T) {
	cfg := &Config{EventsKafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.EventsKafkaBrokersList()
	if len(got) != 2 {
		t.Fatalf("brokers = %v, want 2 entries", got)
	}
	if got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("brokers = %v", got)
	}

	cfg = &Config{}
	if got := cfg.EventsKafkaBrokersList(); got != nil {
		t.Errorf("brokers = %v, want nil for empty config", got)
	}
}
