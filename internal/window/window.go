// Package window computes which items of a long, fixed-extent sequence are
// currently on screen.
//
// A Renderer keeps only the scroll offset and the viewport size; the visible
// range is recomputed from those two values on every call.
package window

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrOutOfRange is returned for indices outside [0, Count).
var ErrOutOfRange = errors.New("index out of range")

// Axis is the scroll direction of a renderer.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseAxis accepts "horizontal"/"h" and "vertical"/"v".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Align selects where ScrollToIndex places the target item.
type Align int

const (
	// AlignStart puts the item at the leading edge of the viewport.
	AlignStart Align = iota
	// AlignAuto leaves the offset alone when the item is fully visible and
	// otherwise scrolls the minimum distance.
	AlignAuto
)

// Config describes a fixed-size item list. Extents are in layout units
// (pixels in the browser).
type Config struct {
	Count      int
	ItemExtent int
	Overscan   int
	Axis       Axis
}

// Item is one rendered slot: its index and where it sits on the axis.
type Item struct {
	Index  int `json:"index"`
	Start  int `json:"start"`
	Extent int `json:"extent"`
}

// Renderer tracks one scroll container and computes which items it must
// render for the current offset and viewport.
type Renderer struct {
	cfg      Config
	offset   int
	viewport int
}

// New validates cfg and returns a renderer at offset 0 with an empty
// viewport.
func New(cfg Config) (*Renderer, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("window: negative count %d", cfg.Count)
	}
	if cfg.ItemExtent <= 0 {
		return nil, fmt.Errorf("window: item extent must be positive, got %d", cfg.ItemExtent)
	}
	if cfg.Overscan < 0 {
		return nil, fmt.Errorf("window: negative overscan %d", cfg.Overscan)
	}
	return &Renderer{cfg: cfg}, nil
}

func (r *Renderer) Config() Config { return r.cfg }
func (r *Renderer) Count() int     { return r.cfg.Count }
func (r *Renderer) Axis() Axis     { return r.cfg.Axis }
func (r *Renderer) Offset() int    { return r.offset }
func (r *Renderer) Viewport() int  { return r.viewport }

// TotalExtent sizes the scrollable content box.
func (r *Renderer) TotalExtent() int { return r.cfg.Count * r.cfg.ItemExtent }

// SetViewport changes the visible size and re-clamps the offset.
func (r *Renderer) SetViewport(size int) {
	if size < 0 {
		size = 0
	}
	r.viewport = size
	r.offset = r.clamp(r.offset)
}

// ScrollTo applies a scroll offset reported by the host and returns the
// clamped value actually stored.
func (r *Renderer) ScrollTo(offset int) int {
	r.offset = r.clamp(offset)
	return r.offset
}

func (r *Renderer) maxOffset() int {
	return max(0, r.TotalExtent()-r.viewport)
}

func (r *Renderer) clamp(offset int) int {
	return min(max(offset, 0), r.maxOffset())
}

// Range returns the half-open index range [start, end) to render,
// overscan included. start == end means nothing to render.
func (r *Renderer) Range() (start, end int) {
	if r.cfg.Count == 0 || r.viewport <= 0 {
		return 0, 0
	}
	e := r.cfg.ItemExtent
	first := r.offset / e
	last := (r.offset + r.viewport - 1) / e

	start = max(first-r.cfg.Overscan, 0)
	end = min(last+r.cfg.Overscan+1, r.cfg.Count)
	if start >= end {
		return 0, 0
	}
	return start, end
}

// Items yields the items in Range. The sequence can be ranged over any
// number of times; each pass reads the current offset.
func (r *Renderer) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		start, end := r.Range()
		for i := start; i < end; i++ {
			if !yield(r.item(i)) {
				return
			}
		}
	}
}

func (r *Renderer) VisibleItems() []Item {
	return slices.Collect(r.Items())
}

func (r *Renderer) item(i int) Item {
	return Item{Index: i, Start: i * r.cfg.ItemExtent, Extent: r.cfg.ItemExtent}
}

// InViewport reports whether it intersects the viewport proper, i.e. it is
// not an overscan item.
func (r *Renderer) InViewport(it Item) bool {
	return it.Start < r.offset+r.viewport && it.Start+it.Extent > r.offset
}

// IndexAt returns the index of the item covering the given offset.
func (r *Renderer) IndexAt(offset int) (int, bool) {
	if offset < 0 || r.cfg.Count == 0 {
		return 0, false
	}
	i := offset / r.cfg.ItemExtent
	if i >= r.cfg.Count {
		return 0, false
	}
	return i, true
}

// ScrollToIndex moves the offset so item i is visible. Out-of-range
// indices are rejected with ErrOutOfRange and leave the offset unchanged.
// Near the end of the sequence the offset is clamped, so the item may not
// end up exactly at the leading edge.
func (r *Renderer) ScrollToIndex(i int, align Align) (int, error) {
	if i < 0 || i >= r.cfg.Count {
		return r.offset, fmt.Errorf("window: scroll to %d of %d: %w", i, r.cfg.Count, ErrOutOfRange)
	}
	it := r.item(i)

	target := it.Start
	if align == AlignAuto {
		switch {
		case it.Extent >= r.viewport:
			// Does not fit; fall back to the leading edge.
		case it.Start >= r.offset && it.Start+it.Extent <= r.offset+r.viewport:
			target = r.offset
		case it.Start+it.Extent > r.offset+r.viewport && it.Start > r.offset:
			target = it.Start + it.Extent - r.viewport
		}
	}

	r.offset = r.clamp(target)
	return r.offset, nil
}
