package view

import (
	"errors"
	"time"

	"calstrip/internal/day"
	"calstrip/internal/feed"
	appLog "calstrip/internal/log"
	"calstrip/internal/model"
	"calstrip/internal/selection"
	"calstrip/internal/window"
)

// FeedConfig sizes the event feed.
type FeedConfig struct {
	ItemExtent int
	Overscan   int
	Viewport   int
}

// Row is one rendered event of the feed.
type Row struct {
	window.Item
	Event model.Event
}

// EventFeed is the vertical list of events. Scrolling it selects the day of
// the top row; selecting a day elsewhere scrolls it to that day's first
// event.
type EventFeed struct {
	store  *selection.Store
	src    feed.Source
	scroll scroller

	unsubscribe func()
}

// NewEventFeed subscribes the feed to store and scrolls it to the first
// event of the selected day.
func NewEventFeed(store *selection.Store, src feed.Source, cfg FeedConfig, sink Sink) (*EventFeed, error) {
	if store == nil || src == nil {
		return nil, errors.New("view: event feed needs a store and a source")
	}
	r, err := window.New(window.Config{
		Count:      src.Len(),
		ItemExtent: cfg.ItemExtent,
		Overscan:   cfg.Overscan,
		Axis:       window.Vertical,
	})
	if err != nil {
		return nil, err
	}
	r.SetViewport(cfg.Viewport)

	f := &EventFeed{
		store:  store,
		src:    src,
		scroll: scroller{r: r, sink: sink},
	}
	f.unsubscribe = store.Subscribe(f.onStoreChange)
	f.follow(store.SelectedDay())
	return f, nil
}

// Close unsubscribes the feed from the store.
func (f *EventFeed) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}

func (f *EventFeed) Renderer() *window.Renderer { return f.scroll.r }
func (f *EventFeed) State() ScrollState          { return f.scroll.state }
func (f *EventFeed) Commands() int               { return f.scroll.commands }

func (f *EventFeed) SetViewport(size int) { f.scroll.r.SetViewport(size) }

// Rows returns the rendered window.
func (f *EventFeed) Rows() []Row {
	var out []Row
	for it := range f.scroll.r.Items() {
		ev, ok := f.src.At(it.Index)
		if !ok {
			continue
		}
		out = append(out, Row{Item: it, Event: ev})
	}
	return out
}

// Top returns the event at the leading edge of the viewport.
func (f *EventFeed) Top() (model.Event, bool) {
	i, ok := f.scroll.r.IndexAt(f.scroll.r.Offset())
	if !ok {
		return model.Event{}, false
	}
	return f.src.At(i)
}

// OnScroll handles a scroll event of the feed container. User scrolls
// select the top row's day and ask the date strip to follow; echoes of
// programmatic scrolls are dropped here.
func (f *EventFeed) OnScroll(offset int) {
	if !f.scroll.observe(offset) {
		return
	}
	top, ok := f.Top()
	if !ok {
		return
	}
	if day.IsSameDay(top.Day, f.store.SelectedDay()) {
		return
	}
	if err := f.store.SetSelectedDay(top.Day); err != nil {
		appLog.Error("event feed: select day failed", err, "event", top.ID)
		return
	}
	if err := f.store.SetScrollRequest(top.Day); err != nil {
		appLog.Error("event feed: scroll request failed", err, "event", top.ID)
	}
}

func (f *EventFeed) onStoreChange(change selection.Change, st selection.State) {
	if change != selection.ChangeSelectedDay {
		return
	}
	f.follow(st.SelectedDay)
}

// follow scrolls to the first event of d unless the top row already
// belongs to d. The skip is what keeps a user scroll from snapping back
// to the start of the day it just selected.
func (f *EventFeed) follow(d time.Time) {
	if top, ok := f.Top(); ok && day.IsSameDay(top.Day, d) {
		return
	}
	index, ok := f.src.FirstIndex(d)
	if !ok {
		appLog.Debug("event feed: no events for day", "day", d.Format(day.ISOLayout))
		return
	}
	if _, err := f.scroll.scrollToIndex(index, window.AlignStart); err != nil {
		appLog.Debug("event feed: scroll skipped", "index", index, "reason", err.Error())
	}
}
