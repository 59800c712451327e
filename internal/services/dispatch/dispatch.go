// Package dispatch fires due reminders through the chat transport.
//
// A ticker loop walks the due-cache snapshot; anything at or past its
// instant is delivered, then either marked completed (one-shot) or
// advanced by its cadence (recurring). Outbound sends share a rate
// limiter so a burst of due reminders cannot hit Telegram's flood
// limits.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"mirabot/internal/eventbus"
	"mirabot/internal/storage"
	"mirabot/internal/transport"
	logx "mirabot/pkg/logx"
)

type Config struct {
	Tick       time.Duration // poll interval
	RatePerSec int           // outbound send budget
}

func (c Config) withDefaults() Config {
	if c.Tick <= 0 {
		c.Tick = 5 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 20
	}
	return c
}

// Cache is the due-reminder snapshot the loop consumes.
type Cache interface {
	Pending() []storage.Reminder
	Refresh(ctx context.Context) error
}

// Store is the slice of persistence the dispatcher needs.
type Store interface {
	CompleteReminder(ctx context.Context, id int64) error
	RescheduleReminder(ctx context.Context, id int64, due time.Time) error
}

// Sender delivers reminder text; satisfied by transport.Adapter.
type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
}

type Service struct {
	cfg     Config
	log     logx.Logger
	cache   Cache
	store   Store
	sender  Sender
	bus     eventbus.Bus
	limiter *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// test seam
	now func() time.Time
}

// New builds the dispatcher. bus may be nil when nothing listens.
func New(cfg Config, cache Cache, store Store, sender Sender, bus eventbus.Bus, log logx.Logger) *Service {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		store:   store,
		sender:  sender,
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		now:     time.Now,
	}
}

func (s *Service) publish(typ string, r storage.Reminder) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, ReminderID: r.ID, OwnerID: r.OwnerID})
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(rctx)
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
}

func (s *Service) run(ctx context.Context) {
	t := time.NewTicker(s.cfg.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Fire(ctx)
		}
	}
}

// Fire delivers everything in the cache that is due and settles it in
// storage. The cache is refreshed afterwards so fired reminders drop out
// of the snapshot.
func (s *Service) Fire(ctx context.Context) {
	now := s.now().UTC()
	fired := 0
	for _, r := range s.cache.Pending() {
		if r.Due.After(now) {
			// Pending is ordered by due time.
			break
		}
		if err := s.deliver(ctx, r); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("reminder delivery failed",
				logx.Int64("reminder_id", r.ID), logx.Err(err))
			continue
		}
		s.publish(eventbus.ReminderFired, r)
		s.settle(ctx, r, now)
		fired++
	}
	if fired > 0 {
		if err := s.cache.Refresh(ctx); err != nil {
			s.log.Warn("cache refresh after dispatch failed", logx.Err(err))
		}
		s.log.Info("reminders dispatched", logx.Int("count", fired))
	}
}

func (s *Service) deliver(ctx context.Context, r storage.Reminder) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	// Private Telegram chats share the user's id.
	to := transport.ChatTarget{ChatID: r.RecipientID}
	_, err := s.sender.SendText(ctx, to, "⏰ "+r.Message, nil)
	return err
}

// settle completes a one-shot reminder or advances a recurring one past
// now by whole cadence spans. A cadence that fails to move time forward
// retires the reminder instead of looping.
func (s *Service) settle(ctx context.Context, r storage.Reminder, now time.Time) {
	if !r.Recurring || r.Cadence.IsZero() {
		if err := s.store.CompleteReminder(ctx, r.ID); err != nil {
			s.log.Warn("complete failed", logx.Int64("reminder_id", r.ID), logx.Err(err))
		}
		return
	}
	next := r.Due
	for !next.After(now) {
		adv := r.Cadence.Advance(next)
		if !adv.After(next) {
			s.log.Warn("cadence does not advance, retiring reminder",
				logx.Int64("reminder_id", r.ID), logx.String("cadence", r.Cadence.String()))
			if err := s.store.CompleteReminder(ctx, r.ID); err != nil {
				s.log.Warn("complete failed", logx.Int64("reminder_id", r.ID), logx.Err(err))
			}
			return
		}
		next = adv
	}
	if err := s.store.RescheduleReminder(ctx, r.ID, next); err != nil {
		s.log.Warn("reschedule failed", logx.Int64("reminder_id", r.ID), logx.Err(err))
		return
	}
	s.publish(eventbus.ReminderRescheduled, r)
}

// Describe renders a reminder line for list views.
func Describe(r storage.Reminder, loc *time.Location) string {
	when := r.Due.In(loc).Format("Mon Jan 2 15:04")
	if r.Recurring {
		return fmt.Sprintf("#%d %s (every %s, next %s)", r.ID, r.Message, r.Cadence, when)
	}
	return fmt.Sprintf("#%d %s (%s)", r.ID, r.Message, when)
}
