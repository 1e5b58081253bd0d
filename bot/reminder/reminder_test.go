package reminder

import (
	"sync"
	"testing"
	"time"
)

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Minute, "30 хвилин"},
		{90 * time.Minute, "1.5 години"},
		{time.Hour, "1 годину"},
		{3 * time.Hour, "3 години"},
		{24 * time.Hour, "1 день"},
		{48 * time.Hour, "2 дні"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.in); got != tt.want {
			t.Errorf("FormatOffset(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScheduleAndCancel(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	svc, err := New([]time.Duration{10 * time.Millisecond, time.Hour}, func(userID int64, text string) error {
		mu.Lock()
		sent = append(sent, text)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Start()
	defer func() { _ = svc.Stop() }()

	svc.Schedule(1)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	got := len(sent)
	mu.Unlock()
	if got != 1 {
		t.Fatalf("reminders fired = %d, want 1 (only the near offset)", got)
	}

	svc.Schedule(2)
	svc.Cancel(2)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	after := len(sent)
	mu.Unlock()
	if after != got {
		t.Fatalf("cancelled user still received %d reminders", after-got)
	}
}

func TestFireCapAndPrune(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	// Far offsets: these jobs never fire on their own during the test.
	svc, err := New([]time.Duration{time.Hour, 2 * time.Hour}, func(int64, string) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Start()
	defer func() { _ = svc.Stop() }()

	svc.Schedule(9)
	for i := 0; i < 5; i++ {
		svc.fire(9, time.Hour)
	}

	mu.Lock()
	got := count
	mu.Unlock()
	if got != 2 {
		t.Fatalf("fires delivered = %d, want one per scheduled offset (2)", got)
	}

	// The chain is exhausted: nothing about user 9 may linger.
	svc.mu.Lock()
	jobs, pending := len(svc.jobs), len(svc.pending)
	svc.mu.Unlock()
	if jobs != 0 || pending != 0 {
		t.Fatalf("bookkeeping not pruned after last fire: jobs=%d pending=%d", jobs, pending)
	}

	// A fire for a user who was never scheduled delivers nothing.
	svc.fire(10, time.Hour)
	mu.Lock()
	defer mu.Unlock()
	if count != got {
		t.Fatalf("unscheduled user received a reminder")
	}
}

func TestCancelPrunesBookkeeping(t *testing.T) {
	svc, err := New([]time.Duration{time.Hour}, func(int64, string) error { return nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Start()
	defer func() { _ = svc.Stop() }()

	svc.Schedule(11)
	svc.Cancel(11)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.jobs) != 0 || len(svc.pending) != 0 {
		t.Fatalf("bookkeeping survived cancel: jobs=%d pending=%d", len(svc.jobs), len(svc.pending))
	}
}
