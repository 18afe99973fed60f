package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one poll tick. A returned error is logged and swallowed; it never
// stops the schedule.
type Task func(ctx context.Context) error

// Poller runs a task immediately and then on a fixed wall-clock interval
// until stopped. The timer does not wait for a slow task before arming the
// next tick, but it never runs two invocations of the task concurrently
// itself: a tick that lands while the task is still executing is simply
// delivered late by the ticker.
type Poller struct {
	name string
	log  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(name string, log *zap.Logger) *Poller {
	return &Poller{name: name, log: log}
}

// Start arms the schedule: one immediate run, then one run per interval,
// while active. Calling Start again rebuilds the schedule from the new
// parameters without double-firing; Start with active=false is equivalent
// to Stop.
func (p *Poller) Start(ctx context.Context, task Task, interval time.Duration, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if !active {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(runCtx, task, interval)
}

// Stop cancels the pending schedule. A scheduled but not yet fired tick is
// guaranteed not to invoke the task. In-flight network requests are not
// aborted; their results are simply never rescheduled.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context, task Task, interval time.Duration) {
	p.fire(ctx, task)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.fire(ctx, task)
		}
	}
}

func (p *Poller) fire(ctx context.Context, task Task) {
	if ctx.Err() != nil {
		return
	}
	if err := task(ctx); err != nil {
		p.log.Warn("poll tick failed", zap.String("poller", p.name), zap.Error(err))
	}
}
