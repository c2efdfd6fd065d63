// Package monitor tracks backend connectivity and turns the offline→online
// edge into a sync trigger. State transitions are edge-triggered: staying
// online fires nothing, flapping fires once per transition.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// HealthChecker probes the backend. A nil error means reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Pinger polls the backend health endpoint and keeps an online/offline flag.
// Subscribers are called on every state change with the new state.
type Pinger struct {
	checker  HealthChecker
	interval time.Duration

	mu      sync.Mutex
	online  bool
	subs    []func(online bool)
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPinger(checker HealthChecker, interval time.Duration) *Pinger {
	return &Pinger{
		checker:  checker,
		interval: interval,
	}
}

// IsOnline reports the last observed connectivity state. Starts false until
// the first successful probe.
func (p *Pinger) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe registers a callback invoked on each connectivity transition.
// Callbacks run on the poll goroutine and must not block.
func (p *Pinger) Subscribe(fn func(online bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// SetOnline forces the connectivity state, firing subscribers if it changed.
// Used when an external signal (a failed request, an operator toggle) knows
// better than the poller.
func (p *Pinger) SetOnline(online bool) {
	p.setState(context.Background(), online)
}

// Start begins the polling loop. Returns an error if already running.
func (p *Pinger) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pinger is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Connectivity pinger started", "interval", p.interval)
	return nil
}

// Stop gracefully stops the poller and waits for completion.
func (p *Pinger) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	// Cleared before closing so a concurrent Stop is a no-op instead of a
	// double close.
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Connectivity pinger stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Connectivity pinger stop timed out")
		return ctx.Err()
	}

	return nil
}

func (p *Pinger) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Probe immediately so startup state settles before the first tick.
	p.probe(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Pinger) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	err := p.checker.Ping(probeCtx)
	p.setState(ctx, err == nil)
}

func (p *Pinger) setState(ctx context.Context, online bool) {
	p.mu.Lock()
	if p.online == online {
		p.mu.Unlock()
		return
	}
	p.online = online
	subs := make([]func(bool), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	if online {
		slog.InfoContext(ctx, "Backend reachable, now online")
	} else {
		slog.WarnContext(ctx, "Backend unreachable, now offline")
	}

	for _, fn := range subs {
		fn(online)
	}
}
