package parse

import (
	"strconv"
	"strings"
	"time"
)

// englishMonths is the default locale table for the spelled-date extractor.
var englishMonths = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// dateResult is a calendar date pulled out of the buffer. hasYear records
// whether the user wrote the year out; without it the date floats into the
// next year when the current-year instant is already gone.
type dateResult struct {
	year    int
	month   time.Month
	day     int
	hasYear bool
}

// extractSpelledDate scans for a month name and pairs it with the adjacent
// day token: the token after the month for month-first owners, the token
// before it otherwise. The day token may carry an ordinal suffix ("30th")
// or a trailing comma. Both tokens are consumed on success.
func extractSpelledDate(t *tokens, months []string, order DateOrder, now time.Time) (dateResult, bool) {
	for i := 0; i < t.len(); i++ {
		word := strings.ToLower(stripComma(t.at(i)))
		month := time.Month(0)
		for mi, name := range months {
			if word == name {
				month = time.Month(mi + 1)
				break
			}
		}
		if month == 0 {
			continue
		}

		di := i + 1
		if order == OrderDayFirst {
			di = i - 1
		}
		day, err := strconv.Atoi(stripOrdinal(stripComma(t.at(di))))
		if err != nil || !validDay(now.Year(), month, day) {
			return dateResult{}, false
		}
		t.drop(i, di)
		return dateResult{year: now.Year(), month: month, day: day}, true
	}
	return dateResult{}, false
}

// numericLayouts returns the ordered date patterns for the owner's
// preference. Unset owners fall back to month-first.
func numericLayouts(order DateOrder) []string {
	if order == OrderDayFirst {
		return []string{
			"2/1/2006", "2/1",
			"2-1-2006", "2-1",
			"2.1.2006", "2.1",
		}
	}
	return []string{
		"1/2/2006", "1/2",
		"1-2-2006", "1-2",
		"1.2.2006", "1.2",
	}
}

// extractNumericDate scans for the first token that exactly matches one of
// the numeric date patterns and consumes it.
func extractNumericDate(t *tokens, order DateOrder, now time.Time) (dateResult, bool) {
	layouts := numericLayouts(order)
	for i := 0; i < t.len(); i++ {
		tok := stripComma(t.at(i))
		for _, layout := range layouts {
			parsed, err := time.Parse(layout, tok)
			if err != nil {
				continue
			}
			d := dateResult{
				year:    parsed.Year(),
				month:   parsed.Month(),
				day:     parsed.Day(),
				hasYear: parsed.Year() != 0,
			}
			if !d.hasYear {
				d.year = now.Year()
			}
			t.drop(i)
			return d, true
		}
	}
	return dateResult{}, false
}

func validDay(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	// time.Date normalizes overflow (Feb 30 -> Mar 2); a changed day means
	// the day did not exist in that month.
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Day() == day
}
