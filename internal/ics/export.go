// Package ics renders feed events as an iCalendar document.
package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"calstrip/internal/day"
	appLog "calstrip/internal/log"
	"calstrip/internal/model"
)

const productID = "-//calstrip//calstrip//EN"

// Export builds a VCALENDAR with one VEVENT per event. stamp is written as
// DTSTAMP on every event so repeated exports of the same range are
// byte-identical.
func Export(events []model.Event, name string, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
	}

	appLog.Debug("ics export", "name", name, "event_count", len(events))
	return []byte(cal.Serialize())
}

// Decode reads back a document produced by Export. Only the fields Export
// writes are restored; Day and TimeLabel are derived in loc.
func Decode(body []byte, loc *time.Location) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
		if uid == nil || uid.Value == "" {
			appLog.Error("ics vevent skipped", errors.New("missing UID"))
			continue
		}
		start, err := ve.GetStartAt()
		if err != nil {
			appLog.Error("ics vevent skipped", err, "uid", uid.Value)
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil {
			appLog.Error("ics vevent skipped", err, "uid", uid.Value)
			continue
		}

		ev := model.Event{
			ID:    uid.Value,
			Start: start.In(loc),
			End:   end.In(loc),
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ev.Title = unescapeText(p.Value)
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			ev.Description = unescapeText(p.Value)
		}
		ev.Day = day.StartOfDay(ev.Start)
		ev.TimeLabel = day.Format(ev.Start, "H:mm")
		out = append(out, ev)
	}
	return out, nil
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\;`, ";", `\,`, ",", `\n`, "\n", `\N`, "\n")

// unescapeText undoes RFC 5545 TEXT escaping. Values the parser already
// unescaped pass through unchanged as long as they contain no backslash.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return textUnescaper.Replace(s)
}
