package parse

import (
	"strconv"
	"strings"
	"time"
)

// DateOrder is the owner's numeric-date preference. Unset owners are
// expected to go through the one-time disambiguation dialog before their
// first numeric date is accepted; until then the month-first patterns are
// used.
type DateOrder int

const (
	OrderUnset DateOrder = iota
	OrderMonthFirst
	OrderDayFirst
)

// Owner is the parsing view of the requesting user.
type Owner struct {
	ID          int64
	Username    string
	Timezone    string // IANA name, "" means unset (UTC)
	Order       DateOrder
	ActiveCount int // active reminders owned right now
}

// Cadence is the sparse per-unit repeat spec of a recurring reminder:
// every Years years, every Months months, and so on. All zero means the
// reminder fires once.
type Cadence struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

func (c *Cadence) add(u Unit, n int) {
	switch u {
	case UnitSecond:
		c.Seconds += n
	case UnitMinute:
		c.Minutes += n
	case UnitHour:
		c.Hours += n
	case UnitDay:
		c.Days += n
	case UnitWeek:
		c.Weeks += n
	case UnitMonth:
		c.Months += n
	case UnitYear:
		c.Years += n
	}
}

// IsZero reports whether no unit counter is set.
func (c Cadence) IsZero() bool { return c == Cadence{} }

// Advance moves t forward by one full cadence span. Months and years use
// calendar addition; everything else is a plain duration.
func (c Cadence) Advance(t time.Time) time.Time {
	t = t.AddDate(c.Years, c.Months, c.Weeks*7+c.Days)
	return t.Add(time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second)
}

// String renders the non-zero counters from years down to seconds,
// comma-joined ("1 year, 2 weeks"). With all counters zero it is "once".
func (c Cadence) String() string {
	type part struct {
		n    int
		unit Unit
	}
	parts := []part{
		{c.Years, UnitYear}, {c.Months, UnitMonth}, {c.Weeks, UnitWeek},
		{c.Days, UnitDay}, {c.Hours, UnitHour}, {c.Minutes, UnitMinute},
		{c.Seconds, UnitSecond},
	}
	var out []string
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		s := strconv.Itoa(p.n) + " " + p.unit.String()
		if p.n != 1 {
			s += "s"
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return "once"
	}
	return strings.Join(out, ", ")
}

// Draft is the parsed, not-yet-persisted reminder.
type Draft struct {
	OwnerID     int64
	RecipientID int64
	Due         time.Time // always UTC
	Recurring   bool
	Cadence     Cadence
	Message     string
	Completed   bool
}

// Reason classifies a rejected parse. These are expected validation
// outcomes, not errors.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoTemporal
	ReasonPast
	ReasonMessageTooLong
	ReasonLimitExceeded
	ReasonSpam
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoTemporal:
		return "no_temporal_expression"
	case ReasonPast:
		return "scheduled_in_past"
	case ReasonMessageTooLong:
		return "message_too_long"
	case ReasonLimitExceeded:
		return "reminder_limit_exceeded"
	case ReasonSpam:
		return "spam_rate_limited"
	default:
		return "unknown"
	}
}

// Result is the outcome of a parse: either OK with a Draft and a
// confirmation message, or a Reason with a human-readable rejection.
type Result struct {
	OK      bool
	Reason  Reason
	Message string
	Draft   *Draft
}

func reject(r Reason, msg string) Result {
	return Result{Reason: r, Message: msg}
}
