// Package throttle paces high-frequency outbound actions per channel.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMoveInterval is the minimum spacing between admitted pointer moves.
	DefaultMoveInterval = 16 * time.Millisecond
	// DefaultScrollInterval is the minimum spacing between admitted scroll steps.
	DefaultScrollInterval = 8 * time.Millisecond
)

// Channel names an independently paced stream of actions.
type Channel string

const (
	// ChannelMove carries pointer moves.
	ChannelMove Channel = "move"
	// ChannelScroll carries wheel scrolls.
	ChannelScroll Channel = "scroll"
)

// Gate admits at most one event per interval and drops the rest.
//
// The gate is a burst-1 token bucket: after an admission it is busy until the
// interval elapses, whether or not the admitted send has finished.
type Gate struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewGate returns an open gate with the given cool-down.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// TryAdmit reports whether an event at now may pass. Rejected events do not extend the cool-down.
func (g *Gate) TryAdmit(now time.Time) bool {
	if g.interval <= 0 {
		return true
	}
	return g.limiter.AllowN(now, 1)
}

// Interval returns the gate cool-down.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Throttle owns one gate per rate-limited channel.
type Throttle struct {
	mu    sync.Mutex
	gates map[Channel]*Gate
	now   func() time.Time
}

// New returns a throttle with the given per-channel intervals.
func New(intervals map[Channel]time.Duration) *Throttle {
	t := &Throttle{
		gates: make(map[Channel]*Gate, len(intervals)),
		now:   time.Now,
	}
	for ch, d := range intervals {
		t.gates[ch] = NewGate(d)
	}
	return t
}

// Default returns a throttle with the stock move and scroll intervals.
func Default() *Throttle {
	return New(map[Channel]time.Duration{
		ChannelMove:   DefaultMoveInterval,
		ChannelScroll: DefaultScrollInterval,
	})
}

// SetNowFunc overrides the clock used for admission.
func (t *Throttle) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = fn
}

// TryAdmit reports whether an event on ch may be sent now. Unknown channels are unthrottled.
func (t *Throttle) TryAdmit(ch Channel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gates[ch]
	if !ok {
		return true
	}
	return g.TryAdmit(t.now())
}

// Interval returns the cool-down for ch, or zero when ch is unthrottled.
func (t *Throttle) Interval(ch Channel) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.gates[ch]; ok {
		return g.Interval()
	}
	return 0
}
