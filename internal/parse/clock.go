package parse

import (
	"strings"
	"time"
)

// clockLayouts are the lenient single-token time shapes. Bare integers are
// deliberately absent so offset magnitudes ("in 10 minutes") never read as
// clock times.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05pm",
	"3:04pm",
	"3pm",
}

// parseClock parses one token as a wall-clock time.
func parseClock(tok string) (time.Time, bool) {
	lower := strings.ToLower(stripComma(tok))
	for _, layout := range clockLayouts {
		if v, err := time.Parse(layout, lower); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

// timeResult is an extracted clock time: the resolved UTC instant plus the
// local wall-clock components it came from, so a date found elsewhere in
// the buffer can be recombined with the same time of day.
type timeResult struct {
	utc            time.Time
	hour, min, sec int
}

// extractTime scans for the first time-bearing token. A trailing "AM"/"PM"
// token is merged into it before re-parsing. The wall-clock value is
// resolved against today in loc and converted to UTC; an instant already
// past rolls forward one day.
func extractTime(t *tokens, loc *time.Location, now time.Time) (timeResult, bool) {
	for i := 0; i < t.len(); i++ {
		clock, ok := parseClock(t.at(i))
		if !ok {
			continue
		}
		next := strings.ToLower(t.at(i + 1))
		if next == "am" || next == "pm" {
			if merged, ok := parseClock(t.at(i) + next); ok {
				clock = merged
			}
			t.drop(i, i+1)
		} else {
			t.drop(i)
		}

		local := now.In(loc)
		wall := time.Date(local.Year(), local.Month(), local.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
		utc := wall.UTC()
		if !utc.After(now) {
			utc = utc.Add(24 * time.Hour)
		}
		return timeResult{
			utc:  utc,
			hour: clock.Hour(), min: clock.Minute(), sec: clock.Second(),
		}, true
	}
	return timeResult{}, false
}
