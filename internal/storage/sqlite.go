package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mirabot/internal/parse"
	logx "mirabot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite store at cfg.Path, creating the schema on
// first use.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("sqlite opened", logx.String("path", cfg.Path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- users ----

func (s *sqliteStore) UpsertUser(ctx context.Context, u User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, username, timezone, date_order, created_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET username=excluded.username`,
		u.ID, u.Username, u.Timezone, int(u.DateOrder), u.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, timezone, date_order, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *sqliteStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, timezone, date_order, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u       User
		order   int
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Timezone, &order, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.DateOrder = parse.DateOrder(order)
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return u, nil
}

func (s *sqliteStore) SetTimezone(ctx context.Context, id int64, tz string) error {
	return s.updateUser(ctx, id, `UPDATE users SET timezone = ? WHERE id = ?`, tz)
}

func (s *sqliteStore) SetDateOrder(ctx context.Context, id int64, order parse.DateOrder) error {
	return s.updateUser(ctx, id, `UPDATE users SET date_order = ? WHERE id = ?`, int(order))
}

func (s *sqliteStore) updateUser(ctx context.Context, id int64, query string, val any) error {
	res, err := s.db.ExecContext(ctx, query, val, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- reminders ----

const reminderCols = `id, owner_id, recipient_id, message, due_at, recurring,
	cad_years, cad_months, cad_weeks, cad_days, cad_hours, cad_minutes, cad_seconds,
	completed, created_at`

func (s *sqliteStore) CreateReminder(ctx context.Context, r Reminder) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(owner_id, recipient_id, message, due_at, recurring,
		   cad_years, cad_months, cad_weeks, cad_days, cad_hours, cad_minutes, cad_seconds,
		   completed, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,0,?)`,
		r.OwnerID, r.RecipientID, r.Message, r.Due.UnixMilli(), boolInt(r.Recurring),
		r.Cadence.Years, r.Cadence.Months, r.Cadence.Weeks, r.Cadence.Days,
		r.Cadence.Hours, r.Cadence.Minutes, r.Cadence.Seconds,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) ActiveReminders(ctx context.Context, ownerID int64) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderCols+` FROM reminders
		 WHERE owner_id = ? AND completed = 0 ORDER BY due_at`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

func (s *sqliteStore) CountActive(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE owner_id = ? AND completed = 0`, ownerID).Scan(&n)
	return n, err
}

// PendingReminders returns every uncompleted reminder ordered by due
// time, regardless of how far out it is.
func (s *sqliteStore) PendingReminders(ctx context.Context) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderCols+` FROM reminders
		 WHERE completed = 0 ORDER BY due_at`)
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

func (s *sqliteStore) CompleteReminder(ctx context.Context, id int64) error {
	return s.updateReminder(ctx, `UPDATE reminders SET completed = 1 WHERE id = ?`, id)
}

func (s *sqliteStore) RescheduleReminder(ctx context.Context, id int64, due time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET due_at = ? WHERE id = ? AND completed = 0`, due.UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) DeleteReminder(ctx context.Context, id, ownerID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) updateReminder(ctx context.Context, query string, id int64) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	defer rows.Close()
	var out []Reminder
	for rows.Next() {
		var (
			r         Reminder
			due       int64
			recurring int
			completed int
			created   string
		)
		err := rows.Scan(&r.ID, &r.OwnerID, &r.RecipientID, &r.Message, &due, &recurring,
			&r.Cadence.Years, &r.Cadence.Months, &r.Cadence.Weeks, &r.Cadence.Days,
			&r.Cadence.Hours, &r.Cadence.Minutes, &r.Cadence.Seconds,
			&completed, &created)
		if err != nil {
			return nil, err
		}
		r.Due = time.UnixMilli(due).UTC()
		r.Recurring = recurring != 0
		r.Completed = completed != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
