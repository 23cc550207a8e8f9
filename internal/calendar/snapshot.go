package calendar

import (
	"time"

	"calstrip/internal/day"
	"calstrip/internal/selection"
	"calstrip/internal/view"
	"calstrip/internal/window"
)

// Snapshot is the presentation-facing view of a session: plain records
// per rendered item, no access to the store.
type Snapshot struct {
	Today         string    `json:"today"`
	SelectedDay   string    `json:"selected_day"`
	SelectedLabel string    `json:"selected_label"`
	ScrollRequest *string   `json:"scroll_request"`
	Strip         StripPane `json:"strip"`
	Feed          FeedPane  `json:"feed"`
}

// Pane describes one scroll container.
type Pane struct {
	Offset      int    `json:"offset"`
	Viewport    int    `json:"viewport"`
	TotalExtent int    `json:"total_extent"`
	State       string `json:"state"`
	// ScrollTo, when set, is a programmatic scroll the host must apply to
	// its container.
	ScrollTo *int `json:"scroll_to,omitempty"`
}

type StripPane struct {
	Pane
	Cells []CellDTO `json:"cells"`
}

type FeedPane struct {
	Pane
	Rows []RowDTO `json:"rows"`
}

// CellDTO is one rendered strip cell.
type CellDTO struct {
	window.Item
	Day      string `json:"day"`
	DayNum   string `json:"day_num"`
	Month    string `json:"month"`
	Weekday  string `json:"weekday"`
	Selected bool   `json:"selected"`
	Today    bool   `json:"today"`
	// Visible is false for overscan cells.
	Visible bool `json:"visible"`
}

// RowDTO is one rendered feed row.
type RowDTO struct {
	window.Item
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Date        string `json:"date"`
	Day         string `json:"day"`
	Visible     bool   `json:"visible"`
}

func buildSnapshot(today time.Time, st selection.State, strip *view.DateStrip, ef *view.EventFeed) Snapshot {
	snap := Snapshot{
		Today:         today.Format(day.ISOLayout),
		SelectedDay:   st.SelectedDay.Format(day.ISOLayout),
		SelectedLabel: day.Format(st.SelectedDay, "EEEE, MMMM d, yyyy"),
	}
	if st.HasScrollRequest {
		req := st.ScrollRequest.Format(day.ISOLayout)
		snap.ScrollRequest = &req
	}

	sr := strip.Renderer()
	snap.Strip.Pane = pane(sr, strip.State())
	snap.Strip.Cells = make([]CellDTO, 0)
	for _, c := range strip.Cells() {
		snap.Strip.Cells = append(snap.Strip.Cells, CellDTO{
			Item:     c.Item,
			Day:      c.Day.Format(day.ISOLayout),
			DayNum:   day.Format(c.Day, "d"),
			Month:    day.Format(c.Day, "MMM"),
			Weekday:  day.Format(c.Day, "EEE"),
			Selected: c.Selected,
			Today:    c.Today,
			Visible:  sr.InViewport(c.Item),
		})
	}

	fr := ef.Renderer()
	snap.Feed.Pane = pane(fr, ef.State())
	snap.Feed.Rows = make([]RowDTO, 0)
	for _, r := range ef.Rows() {
		snap.Feed.Rows = append(snap.Feed.Rows, RowDTO{
			Item:        r.Item,
			ID:          r.Event.ID,
			Title:       r.Event.Title,
			Description: r.Event.Description,
			Time:        r.Event.TimeLabel,
			Date:        day.Format(r.Event.Day, "MMMM d, yyyy"),
			Day:         r.Event.Day.Format(day.ISOLayout),
			Visible:     fr.InViewport(r.Item),
		})
	}
	return snap
}

func pane(r *window.Renderer, st view.ScrollState) Pane {
	return Pane{
		Offset:      r.Offset(),
		Viewport:    r.Viewport(),
		TotalExtent: r.TotalExtent(),
		State:       st.String(),
	}
}
