// Package eventbus is an in-memory fanout for reminder lifecycle
// signals. Components publish without knowing who listens; the app
// wires a logging subscriber, and future surfaces (metrics, digests)
// can attach without touching the publishers.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Well-known event types.
const (
	ReminderCreated     = "reminder.created"
	ReminderCancelled   = "reminder.cancelled"
	ReminderFired       = "reminder.fired"
	ReminderRescheduled = "reminder.rescheduled"
)

// Event is a lightweight signal about one reminder.
//
// Contract: Publish never blocks, subscribers use buffered channels,
// and slow subscribers drop events rather than stall publishers.
type Event struct {
	Type       string
	Time       time.Time
	ReminderID int64
	OwnerID    int64
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a fanout bus with no background goroutines of its own.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// A subscriber may close its channel while we send; the
		// recover keeps a racing unsubscribe from killing the
		// publisher.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
