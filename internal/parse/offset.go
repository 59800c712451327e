package parse

import (
	"strconv"
	"strings"
	"time"
)

// offsetResult is the accumulated end of a chain of relative offsets.
type offsetResult struct {
	when time.Time // UTC
	cad  Cadence
}

// extractOffset repeatedly scans for a unit keyword and folds the
// magnitude before it (default 1) into a running instant seeded at now.
// Compound offsets compose additively: "in 1 week and 2 days" lands nine
// days out. A connective directly before the magnitude is consumed too.
// The scan restarts after every hit and stops on the first clean pass.
//
// A unit preceded by a zero or negative integer is not an offset. Such
// tokens are left alone so the rest of the message still gets scanned.
func extractOffset(t *tokens, now time.Time) (offsetResult, bool) {
	res := offsetResult{when: now}
	matched := false
	for {
		hit := false
		for i := 0; i < t.len(); i++ {
			unit, ok := unitSynonyms[strings.ToLower(stripComma(t.at(i)))]
			if !ok {
				continue
			}
			mag := 1
			drop := []int{i}
			if n, err := strconv.Atoi(stripComma(t.at(i - 1))); err == nil {
				if n <= 0 {
					continue
				}
				mag = n
				drop = append(drop, i-1)
				if isConnective(t.at(i - 2)) {
					drop = append(drop, i-2)
				}
			}
			res.when = addUnit(res.when, unit, mag)
			res.cad.add(unit, mag)
			t.drop(drop...)
			hit = true
			matched = true
			break
		}
		if !hit {
			break
		}
	}
	if !matched {
		return offsetResult{}, false
	}
	return res, true
}

// addUnit advances t by n units. Days and larger use calendar addition,
// with a week counting as seven days.
func addUnit(t time.Time, u Unit, n int) time.Time {
	switch u {
	case UnitSecond:
		return t.Add(time.Duration(n) * time.Second)
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	case UnitYear:
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}
