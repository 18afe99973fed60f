package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State int

const (
	Running State = iota
	Ended
)

// Remaining is the time left until close, broken into display units.
// Total is the raw difference clamped to zero once elapsed.
type Remaining struct {
	Total   time.Duration
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// String picks the coarsest units worth showing: days+hours, else
// hours+minutes+seconds, else minutes+seconds, else seconds.
func (r Remaining) String() string {
	switch {
	case r.Days > 0:
		return fmt.Sprintf("%dd %dh", r.Days, r.Hours)
	case r.Hours > 0:
		return fmt.Sprintf("%dh %dm %ds", r.Hours, r.Minutes, r.Seconds)
	case r.Minutes > 0:
		return fmt.Sprintf("%dm %ds", r.Minutes, r.Seconds)
	default:
		return fmt.Sprintf("%ds", r.Seconds)
	}
}

// Clock recomputes the remaining time on a one second cadence and moves
// Running -> Ended exactly once when the deadline passes, invoking the
// subscribed callback. Ended is terminal for the lifetime of the clock;
// recomputation keeps running so consumers can keep rendering "ended",
// but the callback never fires again.
type Clock struct {
	log *zap.Logger

	mu        sync.Mutex
	endTime   *time.Time
	state     State
	remaining Remaining
	have      bool
	onEnd     func()
	fired     bool
	cancel    context.CancelFunc

	now func() time.Time
}

func New(endTime *time.Time, onEnd func(), log *zap.Logger) *Clock {
	return &Clock{
		log:     log,
		endTime: endTime,
		state:   Running,
		onEnd:   onEnd,
		now:     time.Now,
	}
}

// Start begins the one second cadence with an immediate first recompute.
func (c *Clock) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		c.Tick()
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				c.Tick()
			}
		}
	}()
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// SetEndTime replaces the deadline, e.g. after a server-side auto-extend.
// Ignored once the clock has ended.
func (c *Clock) SetEndTime(endTime *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Ended {
		return
	}
	c.endTime = endTime
}

// Tick recomputes the remaining time once. Exposed so the cadence can be
// driven deterministically in tests.
func (c *Clock) Tick() {
	c.mu.Lock()
	if c.endTime == nil {
		c.have = false
		c.mu.Unlock()
		return
	}

	d := c.endTime.Sub(c.now())
	if d < 0 {
		d = 0
	}
	c.remaining = breakdown(d)
	c.have = true

	var fire func()
	if d == 0 && c.state == Running {
		c.state = Ended
		if !c.fired {
			c.fired = true
			fire = c.onEnd
		}
	}
	c.mu.Unlock()

	if fire != nil {
		c.log.Info("countdown ended")
		fire()
	}
}

// Remaining reports the latest computed value; ok is false when no
// deadline is set.
func (c *Clock) Remaining() (Remaining, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining, c.have
}

func (c *Clock) HasEnded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Ended
}

func breakdown(d time.Duration) Remaining {
	secs := int(d / time.Second)
	return Remaining{
		Total:   d,
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}
