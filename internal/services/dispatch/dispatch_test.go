package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"mirabot/internal/parse"
	"mirabot/internal/storage"
	"mirabot/internal/transport"
	logx "mirabot/pkg/logx"
)

type fakeCache struct {
	mu        sync.Mutex
	pending   []storage.Reminder
	refreshes int
}

func (f *fakeCache) Pending() []storage.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeCache) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

type fakeStore struct {
	mu          sync.Mutex
	completed   []int64
	rescheduled map[int64]time.Time
}

func (f *fakeStore) CompleteReminder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeStore) RescheduleReminder(ctx context.Context, id int64, due time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rescheduled == nil {
		f.rescheduled = map[int64]time.Time{}
	}
	f.rescheduled[id] = due
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	to   []int64
}

func (f *fakeSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	f.to = append(f.to, to.ChatID)
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func TestFireDeliversAndCompletes(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cache := &fakeCache{pending: []storage.Reminder{
		{ID: 1, OwnerID: 5, RecipientID: 5, Message: "check the oven", Due: now.Add(-time.Second)},
		{ID: 2, OwnerID: 5, RecipientID: 6, Message: "later", Due: now.Add(time.Hour)},
	}}
	store := &fakeStore{}
	sender := &fakeSender{}
	s := New(Config{}, cache, store, sender, nil, logx.Nop())
	s.now = func() time.Time { return now }

	s.Fire(context.Background())

	if len(sender.sent) != 1 || sender.sent[0] != "⏰ check the oven" {
		t.Fatalf("sent = %v, want the due reminder only", sender.sent)
	}
	if sender.to[0] != 5 {
		t.Fatalf("sent to chat %d, want 5", sender.to[0])
	}
	if len(store.completed) != 1 || store.completed[0] != 1 {
		t.Fatalf("completed = %v, want [1]", store.completed)
	}
	if cache.refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", cache.refreshes)
	}
}

func TestFireAdvancesRecurring(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-10 * time.Minute)
	cache := &fakeCache{pending: []storage.Reminder{
		{
			ID: 7, OwnerID: 1, RecipientID: 2, Message: "stretch",
			Due: due, Recurring: true,
			Cadence: parse.Cadence{Minutes: 15},
		},
	}}
	store := &fakeStore{}
	sender := &fakeSender{}
	s := New(Config{}, cache, store, sender, nil, logx.Nop())
	s.now = func() time.Time { return now }

	s.Fire(context.Background())

	if len(store.completed) != 0 {
		t.Fatalf("recurring reminder was completed: %v", store.completed)
	}
	next, ok := store.rescheduled[7]
	if !ok {
		t.Fatal("recurring reminder was not rescheduled")
	}
	if want := due.Add(15 * time.Minute); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
	if !next.After(now) {
		t.Fatalf("next = %v is not after now %v", next, now)
	}
}

// A stored cadence that moves time backwards (or not at all) must not
// spin the dispatcher; the reminder is delivered once and retired.
func TestFireRetiresNonAdvancingCadence(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cache := &fakeCache{pending: []storage.Reminder{
		{
			ID: 9, OwnerID: 1, RecipientID: 2, Message: "poke",
			Due: now.Add(-10 * time.Minute), Recurring: true,
			Cadence: parse.Cadence{Minutes: -5},
		},
	}}
	store := &fakeStore{}
	sender := &fakeSender{}
	s := New(Config{}, cache, store, sender, nil, logx.Nop())
	s.now = func() time.Time { return now }

	done := make(chan struct{})
	go func() {
		s.Fire(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Fire did not return")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %v, want one delivery", sender.sent)
	}
	if len(store.completed) != 1 || store.completed[0] != 9 {
		t.Fatalf("completed = %v, want [9]", store.completed)
	}
	if len(store.rescheduled) != 0 {
		t.Fatalf("rescheduled = %v, want none", store.rescheduled)
	}
}

func TestFireNothingDue(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	cache := &fakeCache{pending: []storage.Reminder{
		{ID: 1, RecipientID: 2, Due: now.Add(time.Hour)},
	}}
	store := &fakeStore{}
	sender := &fakeSender{}
	s := New(Config{}, cache, store, sender, nil, logx.Nop())

	s.Fire(context.Background())

	if len(sender.sent) != 0 || cache.refreshes != 0 {
		t.Fatalf("nothing should fire: sent=%v refreshes=%d", sender.sent, cache.refreshes)
	}
}
