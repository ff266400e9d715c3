package redis

import (
	"testing"
	"time"
)

func TestDedupKey(t *testing.T) {
	ts := time.Date(2025, time.September, 5, 10, 0, 0, 0, time.UTC)
	got := dedupKey("EX-SEP-05-001", "in_transit", ts)
	if want := "dedup:EX-SEP-05-001:in_transit:1757066400"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDedupKey_IgnoresSubSecond(t *testing.T) {
	ts := time.Date(2025, time.September, 5, 10, 0, 0, 0, time.UTC)
	if dedupKey("x", "s", ts) != dedupKey("x", "s", ts.Add(999*time.Millisecond)) {
		t.Fatal("keys should match within the same second")
	}
}

func TestNewLocker_Defaults(t *testing.T) {
	l := NewLocker(nil, 0)
	if l.ttl != defaultLockTTL || l.wait != 2*defaultLockTTL {
		t.Fatalf("unexpected defaults: ttl=%v wait=%v", l.ttl, l.wait)
	}
}

func TestConfigOptions_DefaultsOpTimeout(t *testing.T) {
	opts := Config{Addr: "localhost:6379", DB: 2}.options()
	if opts.ReadTimeout != defaultOpTimeout || opts.WriteTimeout != defaultOpTimeout {
		t.Fatalf("timeouts = %s/%s", opts.ReadTimeout, opts.WriteTimeout)
	}
	if opts.DB != 2 || opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected options %+v", opts)
	}
}
