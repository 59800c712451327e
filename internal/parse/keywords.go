package parse

import "strings"

// Unit is a calendar or clock unit a reminder can repeat on.
type Unit int

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

func (u Unit) String() string {
	switch u {
	case UnitSecond:
		return "second"
	case UnitMinute:
		return "minute"
	case UnitHour:
		return "hour"
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	case UnitYear:
		return "year"
	default:
		return "unknown"
	}
}

// unitSynonyms maps lowercase keywords to the unit they name.
// "tomorrow" behaves as a one-day offset with an implicit magnitude of 1.
var unitSynonyms = map[string]Unit{
	"sec": UnitSecond, "secs": UnitSecond, "second": UnitSecond, "seconds": UnitSecond,
	"min": UnitMinute, "mins": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
	"hr": UnitHour, "hrs": UnitHour, "hour": UnitHour, "hours": UnitHour,
	"day": UnitDay, "days": UnitDay, "tomorrow": UnitDay,
	"week": UnitWeek, "weeks": UnitWeek, "wk": UnitWeek, "wks": UnitWeek,
	"month": UnitMonth, "months": UnitMonth,
	"year": UnitYear, "years": UnitYear, "yr": UnitYear, "yrs": UnitYear,
}

// stopWords are filler tokens removed from the residual message after
// extraction. "remind" and "me" cover the common request prefix.
var stopWords = map[string]bool{
	"in": true, "on": true, "at": true, "every": true, "to": true,
	"that": true, "and": true, "from": true, "now": true,
	"a": true, "an": true, "next": true, "remind": true, "me": true,
}

// connectives join magnitude/unit pairs in compound offsets
// ("in 1 week and 2 days").
var connectives = map[string]bool{
	"and": true,
}

func isStopWord(tok string) bool   { return stopWords[strings.ToLower(tok)] }
func isConnective(tok string) bool { return connectives[strings.ToLower(tok)] }

// stripComma removes a single trailing comma ("weeks," -> "weeks").
func stripComma(tok string) string {
	return strings.TrimSuffix(tok, ",")
}

// stripOrdinal removes an English ordinal suffix from a day token
// ("1st" -> "1", "22nd" -> "22"). Tokens without a digit prefix are
// returned unchanged.
func stripOrdinal(tok string) string {
	lower := strings.ToLower(tok)
	for _, suf := range [...]string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(lower, suf) && len(lower) > len(suf) {
			head := lower[:len(lower)-len(suf)]
			if isDigits(head) {
				return head
			}
		}
	}
	return tok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
