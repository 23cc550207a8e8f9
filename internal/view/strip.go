package view

import (
	"errors"
	"fmt"
	"time"

	"calstrip/internal/day"
	appLog "calstrip/internal/log"
	"calstrip/internal/selection"
	"calstrip/internal/window"
)

// StripConfig sizes the date strip. Index 0 is Today.
type StripConfig struct {
	Today      time.Time
	Days       int
	ItemExtent int
	Overscan   int
	Viewport   int
}

// Cell is one rendered day of the strip.
type Cell struct {
	window.Item
	Day      time.Time
	Selected bool
	Today    bool
}

// DateStrip is the horizontal list of days. Clicking a cell selects its
// day; a scroll request in the store moves the strip to that day.
type DateStrip struct {
	store  *selection.Store
	today  time.Time
	scroll scroller

	target    int
	hasTarget bool

	unsubscribe func()
}

// NewDateStrip subscribes the strip to store. A scroll request already
// pending in the store is served immediately.
func NewDateStrip(store *selection.Store, cfg StripConfig, sink Sink) (*DateStrip, error) {
	if store == nil {
		return nil, errors.New("view: date strip needs a store")
	}
	if cfg.Today.IsZero() {
		return nil, fmt.Errorf("view: date strip anchor: %w", day.ErrInvalidDate)
	}
	r, err := window.New(window.Config{
		Count:      cfg.Days,
		ItemExtent: cfg.ItemExtent,
		Overscan:   cfg.Overscan,
		Axis:       window.Horizontal,
	})
	if err != nil {
		return nil, err
	}
	r.SetViewport(cfg.Viewport)

	s := &DateStrip{
		store:  store,
		today:  day.StartOfDay(cfg.Today),
		scroll: scroller{r: r, sink: sink},
	}
	s.unsubscribe = store.Subscribe(s.onStoreChange)

	// A request queued before the strip existed is still honored.
	if req, ok := store.ScrollRequest(); ok {
		s.followRequest(req)
	}
	return s, nil
}

// Close detaches the strip from the store.
func (s *DateStrip) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *DateStrip) Renderer() *window.Renderer { return s.scroll.r }
func (s *DateStrip) State() ScrollState          { return s.scroll.state }
func (s *DateStrip) Commands() int               { return s.scroll.commands }
func (s *DateStrip) Today() time.Time            { return s.today }

// Target is the index the strip last scrolled to in response to a scroll
// request.
func (s *DateStrip) Target() (int, bool) { return s.target, s.hasTarget }

func (s *DateStrip) SetViewport(size int) { s.scroll.r.SetViewport(size) }

// DayAt maps a strip index to its calendar day.
func (s *DateStrip) DayAt(index int) (time.Time, error) {
	if index < 0 || index >= s.scroll.r.Count() {
		return time.Time{}, fmt.Errorf("view: day %d of %d: %w", index, s.scroll.r.Count(), window.ErrOutOfRange)
	}
	return day.AddDays(s.today, index), nil
}

// IndexOf maps a calendar day to its strip index.
func (s *DateStrip) IndexOf(d time.Time) (int, bool) {
	i := day.DaysBetween(s.today, d)
	if i < 0 || i >= s.scroll.r.Count() {
		return 0, false
	}
	return i, true
}

// Cells returns the rendered window with selection highlighting.
func (s *DateStrip) Cells() []Cell {
	selected := s.store.SelectedDay()
	var out []Cell
	for it := range s.scroll.r.Items() {
		d := day.AddDays(s.today, it.Index)
		out = append(out, Cell{
			Item:     it,
			Day:      d,
			Selected: day.IsSameDay(d, selected),
			Today:    it.Index == 0,
		})
	}
	return out
}

// Click selects the day at index. Out-of-range clicks (including any click
// on an empty strip) fail with window.ErrOutOfRange and change nothing.
func (s *DateStrip) Click(index int) error {
	d, err := s.DayAt(index)
	if err != nil {
		return err
	}
	return s.store.SetSelectedDay(d)
}

// OnScroll handles a scroll event of the strip container. Strip scrolls
// never write to the store.
func (s *DateStrip) OnScroll(offset int) {
	s.scroll.observe(offset)
}

func (s *DateStrip) onStoreChange(change selection.Change, st selection.State) {
	if change != selection.ChangeScrollRequest || !st.HasScrollRequest {
		return
	}
	s.followRequest(st.ScrollRequest)
}

func (s *DateStrip) followRequest(req time.Time) {
	// The request is one-shot: consume it whether or not it can be served.
	defer s.store.ClearScrollRequest()

	index := day.DaysBetween(s.today, req)
	if _, err := s.scroll.scrollToIndex(index, window.AlignStart); err != nil {
		appLog.Debug("date strip ignored scroll request", "day", req.Format(day.ISOLayout), "index", index, "reason", err.Error())
		return
	}
	s.target, s.hasTarget = index, true
}
