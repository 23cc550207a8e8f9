// Package calendar wires the selection store, the event source and both
// synchronized views into one session shared by a host (HTTP or terminal).
package calendar

import (
	"fmt"
	"sync"
	"time"

	"calstrip/internal/config"
	"calstrip/internal/day"
	"calstrip/internal/feed"
	appLog "calstrip/internal/log"
	"calstrip/internal/model"
	"calstrip/internal/selection"
	"calstrip/internal/view"
	"calstrip/internal/window"
)

// Options sizes a session. Today anchors both views for the session's
// lifetime.
type Options struct {
	Today             time.Time
	Days              int
	EventsPerDay      int
	FirstSlotHour     int
	SlotIntervalHours int
	ItemExtent        int
	Overscan          int
	StripViewport     int
	FeedViewport      int
}

// OptionsFromConfig derives session options from the application config,
// with today taken from now in the configured timezone.
func OptionsFromConfig(cfg *config.Config, now time.Time) Options {
	return Options{
		Today:             now.In(cfg.Location()),
		Days:              cfg.Days,
		EventsPerDay:      cfg.EventsPerDay,
		FirstSlotHour:     cfg.FirstSlotHour,
		SlotIntervalHours: cfg.SlotIntervalHours,
		ItemExtent:        cfg.ItemExtent,
		Overscan:          cfg.Overscan,
		StripViewport:     cfg.StripViewport,
		FeedViewport:      cfg.FeedViewport,
	}
}

// Session serializes every interaction behind one mutex, which plays the
// role of the UI event loop: each call runs to completion, listeners
// included, before the next one starts.
type Session struct {
	mu sync.Mutex

	today time.Time
	store *selection.Store
	src   *feed.Generated
	strip *view.DateStrip
	feed  *view.EventFeed

	// pending holds the latest programmatic scroll per axis until the host
	// collects it with Snapshot.
	pending map[window.Axis]int
}

// New builds the store, the event source and both views for opts.Today.
func New(opts Options) (*Session, error) {
	if opts.Today.IsZero() {
		return nil, fmt.Errorf("calendar: today: %w", day.ErrInvalidDate)
	}
	today := day.StartOfDay(opts.Today)

	src, err := feed.NewGenerated(today, opts.Days, opts.EventsPerDay, feed.SlotOptions{
		FirstHour:     opts.FirstSlotHour,
		IntervalHours: opts.SlotIntervalHours,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		today:   today,
		store:   selection.New(today),
		src:     src,
		pending: make(map[window.Axis]int),
	}
	sink := view.SinkFunc(s.queueScroll)

	s.strip, err = view.NewDateStrip(s.store, view.StripConfig{
		Today:      today,
		Days:       opts.Days,
		ItemExtent: opts.ItemExtent,
		Overscan:   opts.Overscan,
		Viewport:   opts.StripViewport,
	}, sink)
	if err != nil {
		return nil, err
	}
	s.feed, err = view.NewEventFeed(s.store, src, view.FeedConfig{
		ItemExtent: opts.ItemExtent,
		Overscan:   opts.Overscan,
		Viewport:   opts.FeedViewport,
	}, sink)
	if err != nil {
		s.strip.Close()
		return nil, err
	}

	appLog.Info("calendar session ready",
		"today", today.Format(day.ISOLayout),
		"days", opts.Days,
		"events", src.Len(),
	)
	return s, nil
}

func (s *Session) queueScroll(axis window.Axis, offset int) {
	s.pending[axis] = offset
}

// Close detaches both views from the store.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strip.Close()
	s.feed.Close()
}

func (s *Session) Today() time.Time { return s.today }

func (s *Session) Location() *time.Location { return s.today.Location() }

func (s *Session) SelectedDay() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SelectedDay()
}

// ClickDay handles a click on the strip cell at index.
func (s *Session) ClickDay(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strip.Click(index)
}

// SelectDay selects d from outside both views (API, "today" key) and
// asks the strip to bring it into view. Days outside the strip return
// window.ErrOutOfRange and leave the selection as it was.
func (s *Session) SelectDay(d time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !d.IsZero() {
		if _, ok := s.strip.IndexOf(d); !ok {
			return fmt.Errorf("calendar: select %s: %w", d.Format(day.ISOLayout), window.ErrOutOfRange)
		}
	}
	if err := s.store.SetSelectedDay(d); err != nil {
		return err
	}
	return s.store.SetScrollRequest(d)
}

// ScrollStrip reports a scroll event of the strip container.
func (s *Session) ScrollStrip(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strip.OnScroll(offset)
}

// ScrollFeed reports a scroll event of the feed container.
func (s *Session) ScrollFeed(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed.OnScroll(offset)
}

// Resize reports the viewport size of one container.
func (s *Session) Resize(axis window.Axis, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch axis {
	case window.Horizontal:
		s.strip.SetViewport(size)
	case window.Vertical:
		s.feed.SetViewport(size)
	}
}

// Offsets returns the current scroll offsets of the strip and the feed.
func (s *Session) Offsets() (strip, feed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strip.Renderer().Offset(), s.feed.Renderer().Offset()
}

// Extent is the layout size of one strip cell or feed row.
func (s *Session) Extent() int {
	return s.feed.Renderer().Config().ItemExtent
}

// Events returns up to n consecutive events starting with the first event
// of from. A day without events yields an empty slice.
func (s *Session) Events(from time.Time, n int) []model.Event {
	i, ok := s.src.FirstIndex(from)
	if !ok {
		return []model.Event{}
	}
	return feed.Collect(s.src, i, n)
}

// EventsPerDay is the fixed number of events generated for each day.
func (s *Session) EventsPerDay() int {
	if s.strip.Renderer().Count() == 0 {
		return 0
	}
	return s.src.Len() / s.strip.Renderer().Count()
}

// Snapshot renders both views and hands over pending programmatic scrolls.
// Each pending scroll is delivered once.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := buildSnapshot(s.today, s.store.State(), s.strip, s.feed)
	if off, ok := s.pending[window.Horizontal]; ok {
		snap.Strip.ScrollTo = &off
	}
	if off, ok := s.pending[window.Vertical]; ok {
		snap.Feed.ScrollTo = &off
	}
	clear(s.pending)
	return snap
}

// Peek renders both views without consuming pending scrolls.
func (s *Session) Peek() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildSnapshot(s.today, s.store.State(), s.strip, s.feed)
}
