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
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Timezone != "UTC" {
		t.Errorf("unexpected defaults: port=%s tz=%s", cfg.Port, cfg.Timezone)
	}
	if cfg.Allocation.MaxAttempts != 10 || cfg.Allocation.LockTTL != 5*time.Second {
		t.Errorf("unexpected allocation defaults: %+v", cfg.Allocation)
	}
	if cfg.Rollup.Workers != 4 || cfg.Rollup.RepairSchedule != "15 0 * * *" {
		t.Errorf("unexpected rollup defaults: %+v", cfg.Rollup)
	}
	if len(cfg.Kafka.BrokerList()) != 0 {
		t.Errorf("kafka should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":              "s3cret",
		"TIMEZONE":                "America/Mexico_City",
		"ALLOCATION_MAX_ATTEMPTS": "3",
		"KAFKA_BROKERS":           "k1:9092, k2:9092,",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/Mexico_City" {
		t.Fatalf("location = %v, %v", loc, err)
	}
	if cfg.Allocation.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.Allocation.MaxAttempts)
	}
	if got := cfg.Kafka.BrokerList(); len(got) != 2 || got[1] != "k2:9092" {
		t.Errorf("brokers = %v", got)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	if _, err := load(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
		"TIMEZONE":   "Mars/Olympus",
	}))
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
