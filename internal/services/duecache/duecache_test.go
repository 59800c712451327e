package duecache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mirabot/internal/parse"
	"mirabot/internal/storage"
	logx "mirabot/pkg/logx"
)

type fakeSource struct {
	mu    sync.Mutex
	items []storage.Reminder
	err   error
}

func (f *fakeSource) PendingReminders(ctx context.Context) ([]storage.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]storage.Reminder(nil), f.items...), nil
}

func TestRefreshGroupsByRecipient(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	src := &fakeSource{items: []storage.Reminder{
		{ID: 1, OwnerID: 10, RecipientID: 20, Due: now.Add(5 * time.Minute)},
		{ID: 2, OwnerID: 11, RecipientID: 20, Due: now.Add(10 * time.Minute)},
		{ID: 3, OwnerID: 10, RecipientID: 30, Due: now.Add(15 * time.Minute)},
		{ID: 4, OwnerID: 10, RecipientID: 20, Due: now.Add(48 * time.Hour)}, // beyond lookahead
	}}
	s := New(Config{Lookahead: time.Hour}, src, logx.Nop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The recipient index holds everything, including the far-out row.
	if got := s.Due(20); len(got) != 3 {
		t.Fatalf("Due(20) = %d entries, want 3", len(got))
	}
	if got := s.Due(30); len(got) != 1 || got[0].OwnerID != 10 {
		t.Fatalf("Due(30) = %+v, want one entry owned by 10", got)
	}
	if got := s.Due(99); got != nil {
		t.Fatalf("Due(99) = %+v, want nil", got)
	}
	// The dispatch list stops at the lookahead.
	if got := s.Pending(); len(got) != 3 {
		t.Fatalf("Pending() = %d entries, want 3", len(got))
	}
	for _, r := range s.Pending() {
		if r.ID == 4 {
			t.Fatal("Pending() includes a reminder beyond the lookahead")
		}
	}
}

// A second reminder for the same person landing minutes apart must
// collide in the proximity policy even when both sit well past the
// dispatch lookahead.
func TestSpamPolicySeesBeyondLookahead(t *testing.T) {
	t.Parallel()
	due := time.Now().UTC().Add(2 * time.Hour)
	src := &fakeSource{items: []storage.Reminder{
		{ID: 1, OwnerID: 11, RecipientID: 20, Due: due},
	}}
	s := New(Config{Lookahead: time.Hour}, src, logx.Nop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.Pending(); len(got) != 0 {
		t.Fatalf("Pending() = %d entries, want 0", len(got))
	}

	p := parse.New(parse.Config{}, s)
	res, err := p.Parse(parse.Owner{ID: 11, Username: "bob"}, 20, "in 2 hours call grandma")
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Reason != parse.ReasonSpam {
		t.Fatalf("Parse = %+v, want a spam rejection", res)
	}
}

func TestRefreshFailureKeepsOldSnapshot(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	src := &fakeSource{items: []storage.Reminder{
		{ID: 1, OwnerID: 1, RecipientID: 2, Due: now.Add(time.Minute)},
	}}
	s := New(Config{}, src, logx.Nop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	src.mu.Lock()
	src.err = errors.New("db gone")
	src.mu.Unlock()

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	// Readers still see the last good snapshot.
	if got := s.Due(2); len(got) != 1 {
		t.Fatalf("Due(2) after failed refresh = %d entries, want 1", len(got))
	}
}

func TestConcurrentReadersDuringRefresh(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	src := &fakeSource{items: []storage.Reminder{
		{ID: 1, OwnerID: 1, RecipientID: 2, Due: now.Add(time.Minute)},
	}}
	s := New(Config{}, src, logx.Nop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// A reader racing the swap must always see a complete snapshot,
	// never a transiently empty cache.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if got := s.Due(2); len(got) != 1 {
					t.Errorf("Due(2) = %d entries mid-refresh, want 1", len(got))
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
