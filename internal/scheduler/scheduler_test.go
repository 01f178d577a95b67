package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestScheduler_StartAndReschedule(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	if err := s.Start("*/5 * * * *", func() {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	first := s.NextRun()
	if first == nil {
		t.Fatal("NextRun() = nil after Start")
	}

	// Same expression is a no-op.
	if err := s.Reschedule("*/5 * * * *"); err != nil {
		t.Fatalf("Reschedule() no-op error = %v", err)
	}

	if err := s.Reschedule("0 3 * * *"); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if s.NextRun() == nil {
		t.Error("NextRun() = nil after reschedule")
	}
}

func TestScheduler_RejectsBadCron(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	if err := s.Start("not a cron", func() {}); err == nil {
		t.Error("Start() should reject an invalid cron expression")
	}
}

func TestScheduler_RescheduleBeforeStart(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	if err := s.Reschedule("*/5 * * * *"); err != nil {
		t.Errorf("Reschedule() before Start error = %v", err)
	}
	if s.NextRun() != nil {
		t.Error("NextRun() should be nil before Start")
	}
}
