package control

import (
	"context"
	"log"
	"sync"

	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/throttle"
)

// LinkSource provides the active link and tears it down on transport failure.
type LinkSource interface {
	Link() (link remote.Link, epoch uint64, ok bool)
	Invalidate(epoch uint64) bool
}

// Outcome reports what Dispatch did with an action.
type Outcome string

const (
	// OutcomeLocal means the action has no remote message.
	OutcomeLocal Outcome = "local"
	// OutcomeNotConnected means no link was active.
	OutcomeNotConnected Outcome = "not_connected"
	// OutcomeThrottled means the channel gate was busy and the action was dropped.
	OutcomeThrottled Outcome = "throttled"
	// OutcomeSent means a send was started.
	OutcomeSent Outcome = "sent"
)

// Dispatcher paces actions and sends them to the remote agent.
//
// Sends never block the caller. Throttled and drag-move sends are detached and
// their results discarded. Critical sends are detached too, but their result is
// observed: a transport failure invalidates the epoch the send started under.
type Dispatcher struct {
	src      LinkSource
	throttle *throttle.Throttle
	mode     DragMode
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	hookMu       sync.Mutex
	onInvalidate func(err error)
}

// NewDispatcher returns a dispatcher reading links from src.
func NewDispatcher(src LinkSource, th *throttle.Throttle, mode DragMode) *Dispatcher {
	if th == nil {
		th = throttle.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		src:      src,
		throttle: th,
		mode:     mode,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetInvalidateHook registers a callback run after a transport failure disconnects the session.
func (d *Dispatcher) SetInvalidateHook(fn func(err error)) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.onInvalidate = fn
}

// Mode returns the drag strategy used to build messages.
func (d *Dispatcher) Mode() DragMode {
	return d.mode
}

// Dispatch sends a for delivery according to its pacing policy.
func (d *Dispatcher) Dispatch(a Action) Outcome {
	class, ch := deliveryFor(a, d.mode)
	if class == deliverNone {
		return OutcomeLocal
	}
	msg, ok := MessageFor(a, d.mode)
	if !ok {
		return OutcomeLocal
	}
	link, epoch, ok := d.src.Link()
	if !ok {
		debugf("dispatch: %s dropped: %v", a, remote.ErrNotConnected)
		return OutcomeNotConnected
	}
	if class == deliverThrottled && !d.throttle.TryAdmit(ch) {
		return OutcomeThrottled
	}

	d.detach(link, epoch, a, msg, class == deliverCritical)
	return OutcomeSent
}

// DispatchAll dispatches every action in order.
func (d *Dispatcher) DispatchAll(actions []Action) {
	for _, a := range actions {
		d.Dispatch(a)
	}
}

// Wait blocks until all detached sends have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels in-flight sends and waits for them to return.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

// detach runs one send in the background. Only observed sends report their result.
func (d *Dispatcher) detach(link remote.Link, epoch uint64, a Action, msg remote.Message, observe bool) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := link.Send(d.ctx, msg)
		if !observe {
			if err != nil {
				debugf("dispatch: %s ignored error: %v", a, err)
			}
			return
		}
		d.observe(epoch, a, err)
	}()
}

// observe applies the result of a critical send to the session.
func (d *Dispatcher) observe(epoch uint64, a Action, err error) {
	switch {
	case err == nil:
		debugf("dispatch: %s ok", a)
	case remote.IsTransport(err):
		if !d.src.Invalidate(epoch) {
			debugf("dispatch: %s failed on stale link: %v", a, err)
			return
		}
		log.Printf("dispatch: %s failed, disconnected: %v", a, err)
		d.hookMu.Lock()
		hook := d.onInvalidate
		d.hookMu.Unlock()
		if hook != nil {
			hook(err)
		}
	default:
		log.Printf("dispatch: %s rejected: %v", a, err)
	}
}
