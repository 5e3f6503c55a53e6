package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/logutil"
)

var testEpoch = time.Date(2025, 5, 3, 9, 0, 0, 0, time.UTC)

// fakeScheduler drives simulated time; callbacks run on Advance
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	scheduler *fakeScheduler
	due       time.Time
	fn        func()
	done      bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: testEpoch}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{scheduler: s, due: s.now.Add(d), fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.scheduler.mu.Lock()
	defer t.scheduler.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward, firing due timers in due order
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *fakeTimer
		sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].due.Before(s.timers[j].due) })
		for _, t := range s.timers {
			if !t.done && !t.due.After(target) {
				next = t
				break
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.done = true
		s.now = next.due
		s.mu.Unlock()

		next.fn()
	}
}

func (s *fakeScheduler) activeTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// recordingBus captures published events
type recordingBus struct {
	mu       sync.Mutex
	subjects []string
	events   []SessionEvent
	failWith error
}

func (b *recordingBus) Publish(ctx context.Context, subject string, data []byte) error {
	var ev SessionEvent
	_ = json.Unmarshal(data, &ev)
	return b.record(subject, ev)
}

func (b *recordingBus) PublishJSON(ctx context.Context, subject string, obj interface{}) error {
	ev, _ := obj.(SessionEvent)
	return b.record(subject, ev)
}

func (b *recordingBus) record(subject string, ev SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.subjects = append(b.subjects, subject)
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, subject string, handler ports.MessageHandler) error {
	return nil
}

func (b *recordingBus) Unsubscribe(ctx context.Context, subject string) error { return nil }
func (b *recordingBus) Close() error                                          { return nil }
func (b *recordingBus) Ping() error                                           { return nil }

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.Type
	}
	return out
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = nil
	b.events = nil
}

// runeCounter counts one token per rune
type runeCounter struct{}

func (runeCounter) CountTokens(text string) int {
	return len([]rune(text))
}

type sessionFixture struct {
	session   *Session
	scheduler *fakeScheduler
	bus       *recordingBus
}

func newSessionFixture(mutate ...func(*SessionOptions)) *sessionFixture {
	scheduler := newFakeScheduler()
	bus := &recordingBus{}
	opts := SessionOptions{
		ID:           "s-test",
		Scheduler:    scheduler,
		Messaging:    bus,
		TokenCounter: runeCounter{},
		Logger:       logutil.NewNopLogger(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &sessionFixture{
		session:   NewSession(opts),
		scheduler: scheduler,
		bus:       bus,
	}
}
