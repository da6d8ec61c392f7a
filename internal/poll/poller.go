package poll

import (
	"context"
	"sync"
	"time"
)

// Poller runs a refresh function immediately and then on a fixed interval
// until stopped. Each owner creates its own Poller and tears it down when
// the owning component goes away.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a Poller that invokes fn every interval.
func New(interval time.Duration, fn func(ctx context.Context)) *Poller {
	return &Poller{interval: interval, fn: fn}
}

// Start begins polling. The first refresh fires right away so callers never
// wait a full interval for initial data. Calling Start on a running poller
// is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running = true

	go func(done chan struct{}) {
		defer close(done)
		p.fn(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.fn(ctx)
			}
		}
	}(p.done)
}

// Stop cancels polling and waits for the in-flight refresh to return.
// Safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// Kick triggers one refresh outside the regular schedule, e.g. after user
// input changed the data the refresh depends on. No-op when stopped.
func (p *Poller) Kick(ctx context.Context) {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if running {
		p.fn(ctx)
	}
}
