package parse

import (
	"strings"
	"time"
)

// detectEvery consumes the first "every" token. Its presence marks the
// reminder as recurring.
func detectEvery(t *tokens) bool {
	for i := 0; i < t.len(); i++ {
		if strings.ToLower(stripComma(t.at(i))) == "every" {
			t.drop(i)
			return true
		}
	}
	return false
}

// recurringSchedule resolves the first occurrence and cadence of a
// recurring reminder. The extractors run in fixed order: weekday, relative
// offset, spelled date, numeric date; dates pair with the owner's default
// time of day. A first occurrence that is not in the future is advanced by
// its own cadence span, or by one year for date results. A schedule whose
// cadence cannot produce a future occurrence is discarded.
func (p *Parser) recurringSchedule(t *tokens, owner Owner, loc *time.Location, now time.Time) (time.Time, Cadence, bool) {
	if wd, ok := extractWeekday(t, loc, now); ok {
		cad := Cadence{Weeks: wd.weeks}
		when := wd.when
		if !when.After(now) {
			when = cad.Advance(when)
		}
		if !when.After(now) {
			return time.Time{}, Cadence{}, false
		}
		return when, cad, true
	}
	if off, ok := extractOffset(t, now); ok {
		when := off.when
		if !when.After(now) {
			when = off.cad.Advance(when)
		}
		if !when.After(now) {
			return time.Time{}, Cadence{}, false
		}
		return when, off.cad, true
	}

	date, ok := extractSpelledDate(t, p.cfg.Months, owner.Order, now)
	if !ok {
		date, ok = extractNumericDate(t, owner.Order, now)
	}
	if !ok {
		return time.Time{}, Cadence{}, false
	}
	local := combineLocal(date, p.cfg.DefaultHour, 0, 0, loc)
	cad := Cadence{}
	if !local.UTC().After(now) {
		local = local.AddDate(1, 0, 0)
		cad.Years = 1
	}
	return local.UTC(), cad, true
}
