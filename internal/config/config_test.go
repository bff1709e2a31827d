package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/wavewords")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RingTimeout != "45s" {
		t.Errorf("RingTimeout = %q, want %q", cfg.RingTimeout, "45s")
	}
	if cfg.SweepInterval != "10s" {
		t.Errorf("SweepInterval = %q, want %q", cfg.SweepInterval, "10s")
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.JWTIssuer != "wavewords-id" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "wavewords-id")
	}
	if cfg.CallEventsKafkaTopic != "wavewords-call-events" {
		t.Errorf("CallEventsKafkaTopic = %q, want default", cfg.CallEventsKafkaTopic)
	}
	if got := cfg.RingTimeoutDuration(); got != 45*time.Second {
		t.Errorf("RingTimeoutDuration = %v, want 45s", got)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without DATABASE_URL")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/wavewords")
	os.Setenv("RING_TIMEOUT", "30s")
	os.Setenv("HISTORY_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.RingTimeoutDuration(); got != 30*time.Second {
		t.Errorf("RingTimeoutDuration = %v, want 30s", got)
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", cfg.HistoryLimit)
	}
}

func TestRingTimeoutDuration_Invalid(t *testing.T) {
	cfg := &Config{RingTimeout: "not-a-duration"}
	if got := cfg.RingTimeoutDuration(); got != 45*time.Second {
		t.Errorf("RingTimeoutDuration = %v, want fallback 45s", got)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("KafkaBrokersList = %v, want [localhost:9092 broker2:9092]", got)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
}
