package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubRefresher struct {
	days []string
	fail map[string]error
}

func (s *stubRefresher) RefreshFor(_ context.Context, t time.Time) error {
	day := t.Format(time.DateOnly)
	s.days = append(s.days, day)
	return s.fail[day]
}

func newJob(ref *stubRefresher, loc *time.Location, now time.Time) *RollupRepairJob {
	j := NewRollupRepairJob(ref, "15 0 * * *", loc, zerolog.Nop())
	j.now = func() time.Time { return now }
	return j
}

func TestRunOnce_RefreshesYesterdayAndToday(t *testing.T) {
	ref := &stubRefresher{}
	j := newJob(ref, time.UTC, time.Date(2025, time.October, 1, 0, 15, 0, 0, time.UTC))

	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2025-09-30", "2025-10-01"}
	if len(ref.days) != 2 || ref.days[0] != want[0] || ref.days[1] != want[1] {
		t.Fatalf("refreshed %v, want %v", ref.days, want)
	}
}

func TestRunOnce_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ref := &stubRefresher{}
	// 20:00 UTC on the 5th is already the 6th at UTC+9.
	j := newJob(ref, loc, time.Date(2025, time.September, 5, 20, 0, 0, 0, time.UTC))

	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ref.days[1] != "2025-09-06" {
		t.Fatalf("today = %s, want 2025-09-06", ref.days[1])
	}
}

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("mongo down")
	ref := &stubRefresher{fail: map[string]error{"2025-09-04": boom}}
	j := newJob(ref, time.UTC, time.Date(2025, time.September, 5, 0, 15, 0, 0, time.UTC))

	err := j.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error wrapping boom, got %v", err)
	}
	if len(ref.days) != 2 {
		t.Fatalf("today was skipped: %v", ref.days)
	}
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	j := NewRollupRepairJob(&stubRefresher{}, "every night", time.UTC, zerolog.Nop())
	if err := j.Start(); err == nil {
		j.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	j := NewRollupRepairJob(&stubRefresher{}, "15 0 * * *", time.UTC, zerolog.Nop())
	if err := j.Start(); err != nil {
		t.Fatal(err)
	}
	j.Stop()
}
