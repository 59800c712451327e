package parse

import (
	"fmt"
	"time"
)

// Scheduled is one cached not-yet-fired reminder, as seen by the spam
// check.
type Scheduled struct {
	OwnerID     int64
	RecipientID int64
	Due         time.Time
}

// DueLookup serves the spam policy from the shared due-reminder cache.
// Implementations must be safe for concurrent readers.
type DueLookup interface {
	Due(recipientID int64) []Scheduled
}

// Config tunes parsing limits and policy.
type Config struct {
	MaxReminders  int           // active reminders per owner
	MaxMessageLen int           // residual message length cap
	Developer     string        // username exempt from limits and spam policy
	DefaultHour   int           // local fallback hour when a date has no time
	SpamWindow    time.Duration // cross-user proximity threshold
	Months        []string      // locale month-name table, January first
}

func (c Config) withDefaults() Config {
	if c.MaxReminders <= 0 {
		c.MaxReminders = 25
	}
	if c.MaxMessageLen <= 0 {
		c.MaxMessageLen = 250
	}
	if c.DefaultHour <= 0 {
		c.DefaultHour = 17
	}
	if c.SpamWindow <= 0 {
		c.SpamWindow = 5 * time.Minute
	}
	if len(c.Months) == 0 {
		c.Months = englishMonths
	}
	return c
}

// Parser turns reminder text into draft reminders. Safe for concurrent
// use; all state is per-call.
type Parser struct {
	cfg Config
	due DueLookup

	// test seams
	now          func() time.Time
	loadLocation func(name string) (*time.Location, error)
}

func New(cfg Config, due DueLookup) *Parser {
	return &Parser{
		cfg:          cfg.withDefaults(),
		due:          due,
		now:          time.Now,
		loadLocation: time.LoadLocation,
	}
}

// Parse resolves text into a draft reminder for owner -> recipientID, or a
// structured rejection. The returned error is reserved for collaborator
// faults (an unresolvable stored timezone); every user-input problem comes
// back as a failed Result.
func (p *Parser) Parse(owner Owner, recipientID int64, text string) (Result, error) {
	loc := time.UTC
	if owner.Timezone != "" {
		var err error
		loc, err = p.loadLocation(owner.Timezone)
		if err != nil {
			return Result{}, fmt.Errorf("load timezone %q: %w", owner.Timezone, err)
		}
	}
	now := p.now().UTC()
	t := newTokens(text)

	recurring := detectEvery(t)
	var (
		when time.Time
		cad  Cadence
	)
	if recurring {
		w, c, ok := p.recurringSchedule(t, owner, loc, now)
		if !ok {
			return reject(ReasonNoTemporal, "I couldn't find a valid date or time in that."), nil
		}
		when, cad = w, c
	} else {
		w, c, ok := p.onceSchedule(t, owner, loc, now)
		if !ok {
			return reject(ReasonNoTemporal, "I couldn't find a valid date or time in that."), nil
		}
		when, cad = w, c
		if !when.After(now) {
			return reject(ReasonPast, "That time has already passed."), nil
		}
	}

	if recipientID != owner.ID && !p.isDeveloper(owner) {
		if r, ok := p.spamCheck(owner, recipientID, when, now, recurring); !ok {
			return r, nil
		}
	}

	msg := cleanupMessage(t)
	if len(msg) > p.cfg.MaxMessageLen {
		return reject(ReasonMessageTooLong,
			fmt.Sprintf("That message is too long (max %d characters).", p.cfg.MaxMessageLen)), nil
	}
	if !p.isDeveloper(owner) && owner.ActiveCount >= p.cfg.MaxReminders {
		return reject(ReasonLimitExceeded,
			fmt.Sprintf("You already have %d active reminders; delete one first.", p.cfg.MaxReminders)), nil
	}

	draft := &Draft{
		OwnerID:     owner.ID,
		RecipientID: recipientID,
		Due:         when.UTC(),
		Recurring:   recurring,
		Cadence:     cad,
		Message:     msg,
	}
	return Result{OK: true, Message: p.confirmation(draft, loc), Draft: draft}, nil
}

// onceSchedule resolves a non-recurring reminder. Dates and times are
// extracted independently and recombined; weekday and relative-offset
// extraction only run when neither was found.
func (p *Parser) onceSchedule(t *tokens, owner Owner, loc *time.Location, now time.Time) (time.Time, Cadence, bool) {
	date, dateOK := extractSpelledDate(t, p.cfg.Months, owner.Order, now)
	if !dateOK {
		date, dateOK = extractNumericDate(t, owner.Order, now)
	}
	tr, timeOK := extractTime(t, loc, now)

	switch {
	case dateOK && timeOK:
		return p.resolveDate(date, tr.hour, tr.min, tr.sec, loc, now), Cadence{}, true
	case dateOK:
		return p.resolveDate(date, p.cfg.DefaultHour, 0, 0, loc, now), Cadence{}, true
	case timeOK:
		return tr.utc, Cadence{}, true
	}

	if wd, ok := extractWeekday(t, loc, now); ok {
		return wd.when, Cadence{Weeks: wd.weeks}, true
	}
	if off, ok := extractOffset(t, now); ok {
		return off.when, off.cad, true
	}
	return time.Time{}, Cadence{}, false
}

// resolveDate combines a calendar date with a wall-clock time in loc. A
// yearless date already behind us floats into the next year.
func (p *Parser) resolveDate(d dateResult, hour, min, sec int, loc *time.Location, now time.Time) time.Time {
	local := combineLocal(d, hour, min, sec, loc)
	if !d.hasYear && !local.UTC().After(now) {
		local = local.AddDate(1, 0, 0)
	}
	return local.UTC()
}

func combineLocal(d dateResult, hour, min, sec int, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, hour, min, sec, 0, loc)
}

// spamCheck applies the cross-user policy: a recurring reminder whose
// first occurrence sits within the window of now, or any cached reminder
// for the same owner->recipient pair within the window of the new one, is
// rejected.
func (p *Parser) spamCheck(owner Owner, recipientID int64, when, now time.Time, recurring bool) (Result, bool) {
	win := p.cfg.SpamWindow
	if recurring && !when.After(now.Add(win)) && !now.After(when.Add(win)) {
		return reject(ReasonSpam, "That recurring reminder starts too soon; space it out a bit."), false
	}
	if p.due != nil {
		for _, s := range p.due.Due(recipientID) {
			if s.OwnerID != owner.ID {
				continue
			}
			if absDuration(s.Due.Sub(when)) <= win {
				return reject(ReasonSpam, "You already have a reminder for them around that time."), false
			}
		}
	}
	return Result{}, true
}

func (p *Parser) isDeveloper(owner Owner) bool {
	return p.cfg.Developer != "" && owner.Username == p.cfg.Developer
}

func (p *Parser) confirmation(d *Draft, loc *time.Location) string {
	start := d.Due.In(loc).Format("Monday, January 2 at 3:04 PM MST")
	if !d.Recurring {
		return fmt.Sprintf("Okay, I'll remind you on %s.", start)
	}
	if d.Cadence.IsZero() {
		return fmt.Sprintf("Okay, I'll remind you once, on %s.", start)
	}
	return fmt.Sprintf("Okay, I'll remind you every %s, starting %s.", d.Cadence, start)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
