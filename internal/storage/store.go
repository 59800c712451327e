package storage

import (
	"context"
	"time"

	"mirabot/internal/parse"
)

// Store is the persistence API used by the bot and its services.
type Store interface {
	// Users.
	UpsertUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	SetTimezone(ctx context.Context, id int64, tz string) error
	SetDateOrder(ctx context.Context, id int64, order parse.DateOrder) error

	// Reminders.
	CreateReminder(ctx context.Context, r Reminder) (int64, error)
	ActiveReminders(ctx context.Context, ownerID int64) ([]Reminder, error)
	CountActive(ctx context.Context, ownerID int64) (int, error)
	PendingReminders(ctx context.Context) ([]Reminder, error)
	CompleteReminder(ctx context.Context, id int64) error
	RescheduleReminder(ctx context.Context, id int64, due time.Time) error
	DeleteReminder(ctx context.Context, id, ownerID int64) error

	Close() error
}
