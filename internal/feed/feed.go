// Package feed provides the ordered event sequence shown by the event feed.
package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"calstrip/internal/day"
	"calstrip/internal/model"
)

// Source is an ordered, immutable sequence of events sorted by day and then
// by slot. Implementations must return the same record for the same index
// on every call.
type Source interface {
	Len() int
	At(i int) (model.Event, bool)
	// FirstIndex returns the index of the first event on the given calendar
	// day, or false if the day has no events.
	FirstIndex(d time.Time) (int, bool)
}

// SlotOptions describes when the per-day events start.
type SlotOptions struct {
	// FirstHour is the local hour of the first slot (default 9).
	FirstHour int
	// IntervalHours is the gap between consecutive slots (default 1).
	IntervalHours int
}

type slot struct {
	hour, minute int
}

// Generated derives every event from its index: day = anchor + i/perDay,
// slot = i%perDay. Nothing is materialized up front.
type Generated struct {
	anchor   time.Time
	days     int
	perDay   int
	slots    []slot
	duration time.Duration
}

// NewGenerated builds a generator for days*perDay events starting at the
// calendar day of anchor.
func NewGenerated(anchor time.Time, days, perDay int, opts SlotOptions) (*Generated, error) {
	if days < 0 || perDay < 0 {
		return nil, fmt.Errorf("feed: negative size (days=%d, per_day=%d)", days, perDay)
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("feed: anchor: %w", day.ErrInvalidDate)
	}
	if opts.IntervalHours <= 0 {
		opts.IntervalHours = 1
	}
	if opts.FirstHour < 0 || opts.FirstHour > 23 {
		return nil, errors.New("feed: first slot hour must be within 0..23")
	}

	slots, err := slotTimes(opts, perDay)
	if err != nil {
		return nil, err
	}

	return &Generated{
		anchor:   day.StartOfDay(anchor),
		days:     days,
		perDay:   perDay,
		slots:    slots,
		duration: time.Duration(opts.IntervalHours) * time.Hour,
	}, nil
}

// slotTimes expands an hourly rule on a reference day into wall-clock
// offsets. The reference is UTC so DST never skews the hours; each event
// re-applies them to its own local day.
func slotTimes(opts SlotOptions, perDay int) ([]slot, error) {
	if perDay == 0 {
		return nil, nil
	}
	ref := time.Date(2000, 1, 1, opts.FirstHour, 0, 0, 0, time.UTC)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.HOURLY,
		Interval: opts.IntervalHours,
		Count:    perDay,
		Dtstart:  ref,
	})
	if err != nil {
		return nil, fmt.Errorf("feed: slot rule: %w", err)
	}

	times := r.All()
	if len(times) != perDay {
		return nil, fmt.Errorf("feed: slot rule produced %d slots, want %d", len(times), perDay)
	}
	out := make([]slot, 0, perDay)
	for _, t := range times {
		// Slots past midnight keep counting hours so labels stay monotonic.
		h := t.Hour() + 24*day.DaysBetween(ref, t)
		out = append(out, slot{hour: h, minute: t.Minute()})
	}
	return out, nil
}

func (g *Generated) Len() int { return g.days * g.perDay }

func (g *Generated) At(i int) (model.Event, bool) {
	if i < 0 || i >= g.Len() {
		return model.Event{}, false
	}
	d := day.AddDays(g.anchor, i/g.perDay)
	n := i % g.perDay
	s := g.slots[n]

	y, m, dd := d.Date()
	start := time.Date(y, m, dd, s.hour, s.minute, 0, 0, d.Location())

	return model.Event{
		ID:          fmt.Sprintf("%s-%d", d.Format(time.RFC3339), n),
		Title:       fmt.Sprintf("Event %d", n+1),
		Description: "Description for event on " + day.Format(d, "MMM d, yyyy"),
		TimeLabel:   fmt.Sprintf("%d:%02d", s.hour, s.minute),
		Day:         d,
		Start:       start,
		End:         start.Add(g.duration),
	}, true
}

func (g *Generated) FirstIndex(d time.Time) (int, bool) {
	if g.perDay == 0 {
		return 0, false
	}
	n := day.DaysBetween(g.anchor, d)
	if n < 0 || n >= g.days {
		return 0, false
	}
	return n * g.perDay, true
}

// Anchor is the first day of the sequence.
func (g *Generated) Anchor() time.Time { return g.anchor }

// Collect materializes up to n events starting at index from. Indices past
// the end of src are skipped.
func Collect(src Source, from, n int) []model.Event {
	if from < 0 {
		from = 0
	}
	end := from + n
	if end > src.Len() {
		end = src.Len()
	}
	if end <= from {
		return []model.Event{}
	}
	out := make([]model.Event, 0, end-from)
	for i := from; i < end; i++ {
		if ev, ok := src.At(i); ok {
			out = append(out, ev)
		}
	}
	return out
}
