// Package selection holds the day shared by the date strip and the event
// feed.
//
// The store is passed to both views by reference. It is not safe for
// concurrent use: every mutation and every listener call happens on the
// caller's goroutine, and hosts are expected to serialize interactions.
package selection

import (
	"fmt"
	"time"

	"calstrip/internal/day"
)

// State is a snapshot of the store handed to listeners.
type State struct {
	SelectedDay time.Time

	// ScrollRequest is the one-shot "jump the strip to this day" signal.
	// HasScrollRequest distinguishes it from "no request".
	ScrollRequest    time.Time
	HasScrollRequest bool
}

// Change says which field a notification is about.
type Change int

const (
	ChangeSelectedDay Change = iota
	ChangeScrollRequest
)

func (c Change) String() string {
	switch c {
	case ChangeSelectedDay:
		return "selected_day"
	case ChangeScrollRequest:
		return "scroll_request"
	default:
		return fmt.Sprintf("change(%d)", int(c))
	}
}

// Listener observes every store mutation.
type Listener func(change Change, s State)

type subscriber struct {
	id int
	fn Listener
}

// Store holds the shared selection. It is not safe for concurrent use;
// hosts serialize access.
type Store struct {
	state  State
	subs   []subscriber
	nextID int
}

// New returns a store with today selected and no scroll request.
func New(today time.Time) *Store {
	return &Store{state: State{SelectedDay: day.StartOfDay(today)}}
}

func (s *Store) State() State { return s.state }

func (s *Store) SelectedDay() time.Time { return s.state.SelectedDay }

// SetSelectedDay stores the calendar day of d and notifies all listeners,
// even when d is already selected. Callers that react to their own writes
// must debounce.
func (s *Store) SetSelectedDay(d time.Time) error {
	if d.IsZero() {
		return day.ErrInvalidDate
	}
	s.state.SelectedDay = day.StartOfDay(d)
	s.notify(ChangeSelectedDay)
	return nil
}

func (s *Store) ScrollRequest() (time.Time, bool) {
	return s.state.ScrollRequest, s.state.HasScrollRequest
}

// SetScrollRequest asks the date strip to bring d into view.
func (s *Store) SetScrollRequest(d time.Time) error {
	if d.IsZero() {
		return day.ErrInvalidDate
	}
	s.state.ScrollRequest = day.StartOfDay(d)
	s.state.HasScrollRequest = true
	s.notify(ChangeScrollRequest)
	return nil
}

// ClearScrollRequest resets the request to "none". Listeners are only
// notified if a request was pending.
func (s *Store) ClearScrollRequest() {
	if !s.state.HasScrollRequest {
		return
	}
	s.state.ScrollRequest = time.Time{}
	s.state.HasScrollRequest = false
	s.notify(ChangeScrollRequest)
}

// Subscribe registers fn and returns a function that removes it.
// Listeners run in subscription order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(change Change) {
	// Snapshot both so a listener that mutates the store or unsubscribes
	// does not disturb this round. Nested mutations notify on their own.
	st := s.state
	subs := append([]subscriber(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(change, st)
	}
}
