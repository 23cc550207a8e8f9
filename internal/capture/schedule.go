package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "calstrip/internal/log"
)

// Scheduler runs PagePNG on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	c    *cron.Cron
	opts Options
	run  func(context.Context, Options) error

	mu      sync.Mutex
	running bool
}

// NewScheduler validates spec (standard 5-field cron) and opts. The
// scheduler does nothing until Start.
func NewScheduler(spec string, opts Options) (*Scheduler, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		c:    cron.New(),
		opts: opts,
		run:  PagePNG,
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("capture: invalid cron %q: %w", spec, err)
	}
	if err := s.add(spec); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) add(spec string) error {
	_, err := s.c.AddFunc(spec, func() {
		// cron has no context; each run gets a fresh one bounded by
		// opts.Timeout inside PagePNG.
		s.Trigger(context.Background())
	})
	return err
}

// Trigger runs one capture now unless one is already in flight.
func (s *Scheduler) Trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		appLog.Info("capture skipped; previous run still active")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.run(ctx, s.opts); err != nil {
		appLog.Error("scheduled capture failed", err, "url", s.opts.URL)
	}
}

// Start runs the schedule until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.c.Start()
	go func() {
		<-ctx.Done()
		stopCtx := s.c.Stop()
		<-stopCtx.Done()
	}()
}
