package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	syncengine "gastos/internal/sync"
)

type fakeChecker struct {
	mu  sync.Mutex
	err error
}

func (c *fakeChecker) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeChecker) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

type fakeSyncer struct {
	mu      sync.Mutex
	calls   int
	result  syncengine.Result
	err     error
	syncing bool
}

func (s *fakeSyncer) SyncAll(ctx context.Context) (syncengine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

func (s *fakeSyncer) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

func (s *fakeSyncer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeCounter struct {
	n   int
	err error
}

func (c *fakeCounter) Count(ctx context.Context) (int, error) { return c.n, c.err }

func TestPingerEdgeDetection(t *testing.T) {
	checker := &fakeChecker{err: errors.New("unreachable")}
	pinger := NewPinger(checker, time.Hour) // ticks never fire; we drive state directly

	var mu sync.Mutex
	var transitions []bool
	pinger.Subscribe(func(online bool) {
		mu.Lock()
		transitions = append(transitions, online)
		mu.Unlock()
	})

	if pinger.IsOnline() {
		t.Fatal("pinger should start offline")
	}

	pinger.SetOnline(true)
	pinger.SetOnline(true) // same state, no event
	pinger.SetOnline(false)

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || transitions[0] != true || transitions[1] != false {
		t.Fatalf("transitions = %v, want [true false]", transitions)
	}
}

func TestPingerProbeSetsState(t *testing.T) {
	checker := &fakeChecker{}
	pinger := NewPinger(checker, 10*time.Millisecond)

	online := make(chan bool, 8)
	pinger.Subscribe(func(v bool) { online <- v })

	if err := pinger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pinger.Stop(context.Background())

	select {
	case v := <-online:
		if !v {
			t.Fatal("first transition should be to online")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no transition after successful probe")
	}

	checker.set(errors.New("unreachable"))
	select {
	case v := <-online:
		if v {
			t.Fatal("expected transition to offline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no transition after failed probe")
	}
}

func TestPingerStartTwice(t *testing.T) {
	pinger := NewPinger(&fakeChecker{}, time.Hour)
	if err := pinger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer pinger.Stop(context.Background())

	if err := pinger.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}
}

func TestPingerStopTwice(t *testing.T) {
	pinger := NewPinger(&fakeChecker{}, time.Hour)
	if err := pinger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := pinger.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// A second Stop is a no-op, never a panic on the closed stop channel.
	if err := pinger.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestMonitorSyncsOnReconnect(t *testing.T) {
	checker := &fakeChecker{err: errors.New("unreachable")}
	pinger := NewPinger(checker, time.Hour)
	syncer := &fakeSyncer{result: syncengine.Result{Attempted: 1, Succeeded: 1}}
	NewMonitor(pinger, syncer, &fakeCounter{})

	pinger.SetOnline(true)

	deadline := time.Now().Add(2 * time.Second)
	for syncer.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reconnect did not trigger a sync pass")
		}
		time.Sleep(time.Millisecond)
	}

	// Going offline must not trigger anything further.
	pinger.SetOnline(false)
	time.Sleep(20 * time.Millisecond)
	if got := syncer.callCount(); got != 1 {
		t.Fatalf("sync calls = %d, want 1", got)
	}
}

func TestMonitorTriggerSwallowsInProgress(t *testing.T) {
	syncer := &fakeSyncer{err: syncengine.ErrSyncInProgress}
	pinger := NewPinger(&fakeChecker{}, time.Hour)
	m := NewMonitor(pinger, syncer, &fakeCounter{})

	// Must not panic or report; the running pass covers the trigger.
	m.TriggerSync(context.Background())
	if syncer.callCount() != 1 {
		t.Fatalf("sync calls = %d, want 1", syncer.callCount())
	}
}

func TestMonitorSnapshot(t *testing.T) {
	pinger := NewPinger(&fakeChecker{}, time.Hour)
	pinger.SetOnline(true)
	syncer := &fakeSyncer{syncing: true}
	m := NewMonitor(pinger, syncer, &fakeCounter{n: 3})

	got := m.Snapshot(context.Background())
	want := Status{IsOnline: true, IsSyncing: true, PendingCount: 3}
	if got != want {
		t.Fatalf("Snapshot = %+v, want %+v", got, want)
	}
}

func TestMonitorPendingCountNeverNegative(t *testing.T) {
	pinger := NewPinger(&fakeChecker{}, time.Hour)
	m := NewMonitor(pinger, &fakeSyncer{}, &fakeCounter{n: -1})
	if got := m.PendingCount(context.Background()); got != 0 {
		t.Fatalf("PendingCount = %d, want 0", got)
	}

	m = NewMonitor(NewPinger(&fakeChecker{}, time.Hour), &fakeSyncer{}, &fakeCounter{err: errors.New("db closed")})
	if got := m.PendingCount(context.Background()); got != 0 {
		t.Fatalf("PendingCount on error = %d, want 0", got)
	}
}
