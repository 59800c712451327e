package storage

import (
	"errors"
	"time"

	"mirabot/internal/parse"
)

// ErrNotFound is returned when a user or reminder does not exist. A
// missing identity is a contract violation by the caller, not a user-input
// validation failure.
var ErrNotFound = errors.New("not found")

// Config configures storage. Path is the SQLite database file.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// User is a known chat identity with its parsing preferences.
type User struct {
	ID        int64
	Username  string
	Timezone  string // IANA name, "" means unset
	DateOrder parse.DateOrder
	CreatedAt time.Time
}

// Reminder is a persisted reminder. Due is always UTC; the cadence
// counters are only meaningful when Recurring is set.
type Reminder struct {
	ID          int64
	OwnerID     int64
	RecipientID int64
	Message     string
	Due         time.Time
	Recurring   bool
	Cadence     parse.Cadence
	Completed   bool
	CreatedAt   time.Time
}
