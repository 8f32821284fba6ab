package control

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/session"
	"github.com/Rixmerz/MultiComputer/internal/testutil"
	"github.com/Rixmerz/MultiComputer/internal/throttle"
)

// connectedSession returns a session already connected through link.
func connectedSession(link remote.Link) *session.Session {
	sess := session.New(geometry.Surface{Width: 1000, Height: 500}, testMargin)
	sess.Connect(link, "http://agent:5000", "test-session")
	return sess
}

// fixedThrottle returns a default throttle driven by *now.
func fixedThrottle(now *time.Time) *throttle.Throttle {
	th := throttle.Default()
	th.SetNowFunc(func() time.Time { return *now })
	return th
}

// TestDispatch_MoveThrottle verifies moves at 0, 5 and 20 ms against the 16 ms gate.
func TestDispatch_MoveThrottle(t *testing.T) {
	link := &testutil.FakeLink{}
	now := time.Unix(10, 0)
	d := NewDispatcher(connectedSession(link), fixedThrottle(&now), DragSummary)

	if got := d.Dispatch(Action{Type: ActMove, X: 1}); got != OutcomeSent {
		t.Fatalf("0ms: expected sent, got %s", got)
	}
	now = now.Add(5 * time.Millisecond)
	if got := d.Dispatch(Action{Type: ActMove, X: 2}); got != OutcomeThrottled {
		t.Fatalf("5ms: expected throttled, got %s", got)
	}
	now = now.Add(15 * time.Millisecond)
	if got := d.Dispatch(Action{Type: ActMove, X: 3}); got != OutcomeSent {
		t.Fatalf("20ms: expected sent, got %s", got)
	}
	d.Wait()

	sent := link.Mouse()
	if len(sent) != 2 {
		t.Fatalf("expected 2 moves on the wire, got %+v", sent)
	}
	xs := map[int]bool{sent[0].X: true, sent[1].X: true}
	if !xs[1] || !xs[3] || xs[2] {
		t.Fatalf("expected moves 1 and 3, got %+v", sent)
	}
}

// TestDispatch_CriticalUnthrottled verifies clicks and keys always go out.
func TestDispatch_CriticalUnthrottled(t *testing.T) {
	link := &testutil.FakeLink{}
	now := time.Unix(10, 0)
	d := NewDispatcher(connectedSession(link), fixedThrottle(&now), DragSummary)

	for i := 0; i < 3; i++ {
		if got := d.Dispatch(Action{Type: ActClick, X: i, Button: ButtonLeft}); got != OutcomeSent {
			t.Fatalf("click %d: expected sent, got %s", i, got)
		}
	}
	if got := d.Dispatch(Action{Type: ActCharacter, Text: "a"}); got != OutcomeSent {
		t.Fatalf("expected character sent, got %s", got)
	}
	d.Wait()
	if n := len(link.Sent()); n != 4 {
		t.Fatalf("expected 4 requests, got %d", n)
	}
}

// TestDispatch_NotConnectedKeepsGateOpen verifies offline events neither send nor consume the gate.
func TestDispatch_NotConnectedKeepsGateOpen(t *testing.T) {
	link := &testutil.FakeLink{}
	now := time.Unix(10, 0)
	sess := session.New(geometry.DefaultSurface, testMargin)
	d := NewDispatcher(sess, fixedThrottle(&now), DragSummary)

	if got := d.Dispatch(Action{Type: ActMove}); got != OutcomeNotConnected {
		t.Fatalf("expected not connected, got %s", got)
	}
	sess.Connect(link, "http://agent:5000", "id")
	if got := d.Dispatch(Action{Type: ActMove}); got != OutcomeSent {
		t.Fatalf("expected sent after connect, got %s", got)
	}
	d.Wait()
}

// TestDispatch_TransportFailureDisconnects verifies a failed critical send invalidates the session.
func TestDispatch_TransportFailureDisconnects(t *testing.T) {
	link := &testutil.FakeLink{}
	link.SetErr(&remote.TransportError{Endpoint: remote.PathMouse, Err: syscall.ECONNREFUSED})
	sess := connectedSession(link)
	d := NewDispatcher(sess, nil, DragSummary)

	var hookErr error
	d.SetInvalidateHook(func(err error) { hookErr = err })

	d.Dispatch(Action{Type: ActClick, Button: ButtonLeft})
	d.Wait()
	if sess.Connected() {
		t.Fatalf("expected session to be invalidated")
	}
	if !errors.Is(hookErr, syscall.ECONNREFUSED) {
		t.Fatalf("expected hook with transport error, got %v", hookErr)
	}
	if got := d.Dispatch(Action{Type: ActClick}); got != OutcomeNotConnected {
		t.Fatalf("expected no sends after invalidation, got %s", got)
	}
}

// TestDispatch_StatusErrorKeepsSession verifies an agent rejection is only logged.
func TestDispatch_StatusErrorKeepsSession(t *testing.T) {
	link := &testutil.FakeLink{}
	link.SetErr(&remote.StatusError{Endpoint: remote.PathSpecial, Code: 400})
	sess := connectedSession(link)
	d := NewDispatcher(sess, nil, DragSummary)

	d.Dispatch(Action{Type: ActSpecialKey, Key: "enter"})
	d.Wait()
	if !sess.Connected() {
		t.Fatalf("expected session to stay connected")
	}
}

// TestDispatch_FireAndForgetIgnoresTransportFailure verifies throttled sends never disconnect.
func TestDispatch_FireAndForgetIgnoresTransportFailure(t *testing.T) {
	link := &testutil.FakeLink{}
	link.SetErr(&remote.TransportError{Endpoint: remote.PathMouse, Err: syscall.ECONNREFUSED})
	sess := connectedSession(link)
	d := NewDispatcher(sess, nil, DragRealtime)

	d.Dispatch(Action{Type: ActMove})
	d.Dispatch(Action{Type: ActScroll, Amount: 5})
	d.Dispatch(Action{Type: ActDragMove})
	d.Wait()
	if !sess.Connected() {
		t.Fatalf("expected session to survive fire-and-forget failures")
	}
	if n := len(link.Sent()); n != 3 {
		t.Fatalf("expected 3 attempted sends, got %d", n)
	}
}

// TestDispatch_DragMoveLocalInSummary verifies drag moves are not sent in summary mode.
func TestDispatch_DragMoveLocalInSummary(t *testing.T) {
	link := &testutil.FakeLink{}
	d := NewDispatcher(connectedSession(link), nil, DragSummary)

	if got := d.Dispatch(Action{Type: ActDragMove}); got != OutcomeLocal {
		t.Fatalf("expected local, got %s", got)
	}
	if got := d.Dispatch(Action{Type: ActHover}); got != OutcomeLocal {
		t.Fatalf("expected hover local, got %s", got)
	}
	d.Wait()
	if n := len(link.Sent()); n != 0 {
		t.Fatalf("expected nothing sent, got %d", n)
	}
}

// blockingLink fails every send once release is closed.
type blockingLink struct {
	release chan struct{}
	err     error
}

// Send waits for release, then fails.
func (b *blockingLink) Send(ctx context.Context, _ remote.Message) error {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return b.err
}

// TestDispatch_StaleCompletionIgnored verifies a failure from an old connection leaves the new one alone.
func TestDispatch_StaleCompletionIgnored(t *testing.T) {
	old := &blockingLink{
		release: make(chan struct{}),
		err:     &remote.TransportError{Endpoint: remote.PathMouse, Err: syscall.ECONNRESET},
	}
	sess := connectedSession(old)
	d := NewDispatcher(sess, nil, DragSummary)

	d.Dispatch(Action{Type: ActClick, Button: ButtonLeft})
	sess.Disconnect()
	sess.Connect(&testutil.FakeLink{}, "http://agent:5000", "second")
	close(old.release)
	d.Wait()

	if !sess.Connected() {
		t.Fatalf("expected the new connection to survive a stale failure")
	}
}
