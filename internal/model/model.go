package model

import "time"

// Event is one row of the event feed.
//
// Events are produced on demand by a feed.Source; the same index always
// yields the same record for the lifetime of the process.
type Event struct {
	// ID is "<RFC3339 day>-<slot>", unique across the feed.
	ID string

	Title       string
	Description string

	// TimeLabel is the slot start rendered as "H:00".
	TimeLabel string

	// Day is the calendar day the event belongs to (local midnight).
	Day time.Time

	// Start / End bound the slot. Only the ICS export uses them.
	Start time.Time
	End   time.Time
}
