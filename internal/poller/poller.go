// Package poller drives periodic refresh cycles over the node registry.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
)

// DefaultInterval is the refresh interval in seconds.
const DefaultInterval = 5

// Refresher runs one refresh cycle. *registry.Manager implements it.
type Refresher interface {
	RefreshAll(ctx context.Context) registry.CycleStats
}

// CycleResult is published after every completed cycle.
type CycleResult struct {
	Seq int
	registry.CycleStats
}

// Poller calls RefreshAll, waits for the interval measured from the end of
// the cycle, and repeats. A cycle that outlasts the interval delays the next
// one; ticks are never queued.
type Poller struct {
	refresher Refresher
	log       logger.Logger

	interval atomic.Int64 // seconds
	unit     time.Duration

	trigger chan struct{}
	reset   chan struct{}
	cycles  chan CycleResult

	mu      sync.Mutex
	running bool
	onCycle []func(CycleResult)
}

// New creates a poller refreshing every interval seconds.
// A non-positive interval falls back to DefaultInterval.
func New(r Refresher, interval int, log logger.Logger) *Poller {
	if log == nil {
		log = logger.NewEnvLogger("[poller]")
	}
	p := &Poller{
		refresher: r,
		log:       log,
		unit:      time.Second,
		trigger:   make(chan struct{}, 1),
		reset:     make(chan struct{}, 1),
		cycles:    make(chan CycleResult, 1),
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.interval.Store(int64(interval))
	return p
}

// Interval returns the current interval in seconds.
func (p *Poller) Interval() int {
	return int(p.interval.Load())
}

// SetInterval changes the cadence. Only positive values are accepted;
// anything else is ignored and false is returned. The new value applies to
// the wait already in progress.
func (p *Poller) SetInterval(seconds int) bool {
	if seconds <= 0 {
		p.log.Warn("Ignoring refresh interval %d, must be a positive number of seconds", seconds)
		return false
	}
	p.interval.Store(int64(seconds))
	p.log.Debug("Refresh interval set to %ds", seconds)
	notify(p.reset)
	return true
}

// Trigger requests an immediate cycle. Repeated calls before the cycle
// starts collapse into one.
func (p *Poller) Trigger() {
	notify(p.trigger)
}

// OnCycle registers fn to run synchronously after every cycle.
// Register hooks before calling Run.
func (p *Poller) OnCycle(fn func(CycleResult)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCycle = append(p.onCycle, fn)
}

// Cycles delivers the most recent cycle result. Results nobody reads are
// replaced by newer ones.
func (p *Poller) Cycles() <-chan CycleResult {
	return p.cycles
}

// Run executes cycles until ctx is cancelled. It returns ctx.Err().
// Calling Run twice concurrently is a programming error and panics.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		panic("poller: Run called twice")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for seq := 1; ; seq++ {
		// Drop a trigger that arrived while we were about to start anyway.
		drain(p.trigger)

		stats := p.refresher.RefreshAll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res := CycleResult{Seq: seq, CycleStats: stats}
		p.mu.Lock()
		hooks := p.onCycle
		p.mu.Unlock()
		for _, fn := range hooks {
			fn(res)
		}
		p.publish(res)

		if err := p.wait(ctx); err != nil {
			return err
		}
	}
}

// wait blocks for the interval, an explicit trigger or cancellation.
func (p *Poller) wait(ctx context.Context) error {
	started := time.Now()
	timer := time.NewTimer(p.delay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.trigger:
			return nil
		case <-timer.C:
			return nil
		case <-p.reset:
			remaining := p.delay() - time.Since(started)
			if remaining <= 0 {
				return nil
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(remaining)
		}
	}
}

func (p *Poller) delay() time.Duration {
	return time.Duration(p.interval.Load()) * p.unit
}

func (p *Poller) publish(r CycleResult) {
	select {
	case p.cycles <- r:
		return
	default:
	}
	// Replace the stale result.
	drainCycle(p.cycles)
	select {
	case p.cycles <- r:
	default:
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func drainCycle(ch chan CycleResult) {
	select {
	case <-ch:
	default:
	}
}
