// Package duecache maintains the in-memory snapshot of not-yet-fired
// reminders.
//
// The snapshot is rebuilt wholesale from storage on a fixed interval and
// published by atomic swap, so concurrent readers (the parser's spam
// check, the dispatcher) never observe a partially cleared cache.
package duecache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"mirabot/internal/parse"
	"mirabot/internal/storage"
	logx "mirabot/pkg/logx"
)

// Source is the slice of storage the cache needs.
type Source interface {
	PendingReminders(ctx context.Context) ([]storage.Reminder, error)
}

type Config struct {
	Refresh   time.Duration // rebuild interval
	Lookahead time.Duration // how far ahead of now to cache
}

func (c Config) withDefaults() Config {
	if c.Refresh <= 0 {
		c.Refresh = time.Minute
	}
	if c.Lookahead <= 0 {
		c.Lookahead = time.Hour
	}
	return c
}

// snapshot is an immutable build of the cache. Readers grab the whole
// thing with one atomic load.
type snapshot struct {
	byRecipient map[int64][]parse.Scheduled
	pending     []storage.Reminder
	builtAt     time.Time
}

// Service implements parse.DueLookup over a periodically rebuilt
// snapshot.
type Service struct {
	cfg   Config
	log   logx.Logger
	store Source

	snap atomic.Pointer[snapshot]

	mu      sync.Mutex
	c       *cron.Cron
	running bool
}

func New(cfg Config, store Source, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{cfg: cfg.withDefaults(), log: log, store: store}
	s.snap.Store(&snapshot{byRecipient: map[int64][]parse.Scheduled{}})
	return s
}

// Start performs an initial synchronous refresh, then rebuilds on the
// configured interval until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	c := cron.New()
	_, err := c.AddFunc("@every "+s.cfg.Refresh.String(), func() {
		rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Refresh(rctx); err != nil {
			s.log.Warn("due cache refresh failed", logx.Err(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.running = true
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.running = false
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Refresh rebuilds the snapshot from storage and swaps it in. The
// recipient index covers every uncompleted reminder no matter how far
// out, so policy checks see the whole book; the pending list is bounded
// by the lookahead because the dispatcher only cares about the near
// horizon.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.store.PendingReminders(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(s.cfg.Lookahead)
	next := &snapshot{
		byRecipient: make(map[int64][]parse.Scheduled, len(items)),
		builtAt:     time.Now().UTC(),
	}
	for _, r := range items {
		next.byRecipient[r.RecipientID] = append(next.byRecipient[r.RecipientID], parse.Scheduled{
			OwnerID:     r.OwnerID,
			RecipientID: r.RecipientID,
			Due:         r.Due,
		})
		if !r.Due.After(cutoff) {
			next.pending = append(next.pending, r)
		}
	}
	s.snap.Store(next)
	s.log.Debug("due cache refreshed",
		logx.Int("reminders", len(items)), logx.Int("near_due", len(next.pending)))
	return nil
}

// Due returns the cached reminders addressed to recipientID. Implements
// parse.DueLookup; safe for concurrent use.
func (s *Service) Due(recipientID int64) []parse.Scheduled {
	return s.snap.Load().byRecipient[recipientID]
}

// Pending returns the cached reminders due within the lookahead, ordered
// by due time. The slice is shared with the snapshot; callers must not
// mutate it.
func (s *Service) Pending() []storage.Reminder {
	return s.snap.Load().pending
}

// BuiltAt reports when the current snapshot was assembled.
func (s *Service) BuiltAt() time.Time {
	return s.snap.Load().builtAt
}
