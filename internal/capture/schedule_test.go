package capture

import (
	"context"
	"sync"
	"testing"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	opts := Options{URL: "http://127.0.0.1:8080/", OutputPath: "p.png"}
	if _, err := NewScheduler("every tuesday", opts); err == nil {
		t.Error("invalid cron accepted")
	}
	if _, err := NewScheduler("*/15 * * * *", Options{}); err == nil {
		t.Error("missing URL accepted")
	}
	s, err := NewScheduler("*/15 * * * *", opts)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if n := len(s.c.Entries()); n != 1 {
		t.Errorf("entries = %d", n)
	}
}

func TestTriggerSkipsOverlappingRuns(t *testing.T) {
	s, err := NewScheduler("0 * * * *", Options{URL: "http://x/", OutputPath: "p.png"})
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	s.run = func(context.Context, Options) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.Trigger(context.Background())
		close(done)
	}()
	<-started
	s.Trigger(context.Background()) // overlaps, skipped
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
