package parse

import (
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdayResult is a weekday reference projected onto a concrete instant.
// weeks feeds the recurrence counter ("every 2 tuesday").
type weekdayResult struct {
	when  time.Time // UTC
	weeks int
}

// extractWeekday scans for a weekday name and projects the owner's current
// local instant onto that weekday, honoring an optional qualifier token
// immediately before it: a leading positive integer ("2 monday"), "next",
// or "other".
//
// The day delta is the raw signed difference between the named weekday and
// today's; it is not normalized modulo 7. The qualifier branches roll a
// past candidate forward instead, which keeps the unqualified result
// inside the coming week.
func extractWeekday(t *tokens, loc *time.Location, now time.Time) (weekdayResult, bool) {
	for i := 0; i < t.len(); i++ {
		target, ok := weekdayNames[strings.ToLower(stripComma(t.at(i)))]
		if !ok {
			continue
		}

		local := now.In(loc)
		delta := int(target) - int(local.Weekday())
		cand := local.AddDate(0, 0, delta)

		weeks := 1
		drop := []int{i}
		prev := strings.ToLower(stripComma(t.at(i - 1)))
		if n, err := strconv.Atoi(prev); err == nil && n > 0 {
			weeks = n
			if !cand.After(now) {
				cand = cand.AddDate(0, 0, 7)
			}
			drop = append(drop, i-1)
		} else if prev == "next" {
			cand = cand.AddDate(0, 0, 7)
			drop = append(drop, i-1)
		} else if prev == "other" {
			if !cand.After(now) {
				cand = cand.AddDate(0, 0, 7)
			}
			cand = cand.AddDate(0, 0, 14)
			weeks = 2
			drop = append(drop, i-1)
		} else if !cand.After(now) {
			cand = cand.AddDate(0, 0, 7)
		}

		t.drop(drop...)
		return weekdayResult{when: cand.UTC(), weeks: weeks}, true
	}
	return weekdayResult{}, false
}
