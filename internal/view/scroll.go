// Package view binds two windowed renderers to the selection store: the
// horizontal date strip and the vertical event feed.
//
// Each view runs a small scroll state machine:
//
//	Idle               --user scroll-->               Idle
//	Idle               --programmatic scroll(o)-->    ProgrammaticScroll{o}
//	ProgrammaticScroll --scroll event at o-->         Idle (suppressed)
//	ProgrammaticScroll --scroll event elsewhere-->    Idle (handled as user scroll)
//
// A scroll event that echoes a programmatic scroll never writes back to the
// store, so a selection change cannot re-trigger itself.
package view

import (
	"calstrip/internal/window"
)

// Sink receives programmatic scroll commands for the host's native scroll
// container. Hosts whose scroll containers fire scroll events on
// programmatic moves must pass those events back through OnScroll.
type Sink interface {
	ScrollTo(axis window.Axis, offset int)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(axis window.Axis, offset int)

func (f SinkFunc) ScrollTo(axis window.Axis, offset int) { f(axis, offset) }

// ScrollState is the per-view scroll state.
type ScrollState int

const (
	Idle ScrollState = iota
	ProgrammaticScroll
)

func (s ScrollState) String() string {
	switch s {
	case Idle:
		return "idle"
	case ProgrammaticScroll:
		return "programmatic"
	default:
		return "unknown"
	}
}

// scroller owns a renderer and the scroll state machine around it.
type scroller struct {
	r     *window.Renderer
	sink  Sink
	state ScrollState
	// pending holds offsets of programmatic scrolls whose echo has not been
	// seen yet, oldest first.
	pending []int
	// commands counts programmatic scroll commands sent to the sink.
	commands int
}

// scrollToIndex issues a programmatic scroll. When the offset does not
// change no command is sent and the state stays as it was, because no
// native scroll event will follow.
func (s *scroller) scrollToIndex(i int, align window.Align) (moved bool, err error) {
	before := s.r.Offset()
	off, err := s.r.ScrollToIndex(i, align)
	if err != nil {
		return false, err
	}
	if off == before {
		return false, nil
	}

	s.state = ProgrammaticScroll
	s.pending = append(s.pending, off)
	s.commands++
	if s.sink != nil {
		s.sink.ScrollTo(s.r.Axis(), off)
	}
	return true, nil
}

// observe applies a scroll event from the host and reports whether it
// came from the user.
func (s *scroller) observe(offset int) (user bool) {
	if s.state == ProgrammaticScroll {
		for i, p := range s.pending {
			if p != offset {
				continue
			}
			s.pending = s.pending[i+1:]
			if len(s.pending) == 0 {
				s.state = Idle
			}
			s.r.ScrollTo(offset)
			return false
		}
		s.state = Idle
		s.pending = nil
	}
	s.r.ScrollTo(offset)
	return true
}
