package control

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/session"
	"github.com/Rixmerz/MultiComputer/internal/testutil"
)

// newTestServer returns a server over a connected 1:1 viewport.
func newTestServer(t *testing.T, mode DragMode) (*Server, *session.Session, *testutil.FakeLink) {
	t.Helper()
	link := &testutil.FakeLink{}
	sess := session.New(geometry.Surface{Width: 1000, Height: 500}, testMargin)
	if _, err := sess.Resize(1120, 660); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	sess.Connect(link, "http://agent:5000", "id")
	d := NewDispatcher(sess, nil, mode)
	return NewServer(sess, d, ModCtrl, nil), sess, link
}

// decode parses a raw websocket message.
func decode(t *testing.T, raw string) Message {
	t.Helper()
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return msg
}

// TestServer_DragSequenceSendsOneDrag verifies press, move, release and click send a single drag.
func TestServer_DragSequenceSendsOneDrag(t *testing.T) {
	s, _, link := newTestServer(t, DragSummary)
	for _, raw := range []string{
		`{"t":"down","x":90,"y":90,"button":0}`,
		`{"t":"move","x":120,"y":90}`,
		`{"t":"up","x":120,"y":90,"button":0}`,
		`{"t":"click","x":120,"y":90,"button":0}`,
	} {
		if err := s.handleMessage(decode(t, raw)); err != nil {
			t.Fatalf("handleMessage(%s) failed: %v", raw, err)
		}
	}
	s.dispatcher.Wait()

	sent := link.Mouse()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one request, got %+v", sent)
	}
	p := sent[0]
	if p.Action != remote.MouseDrag || p.X != 50 || p.Y != 50 || *p.ToX != 80 || *p.ToY != 50 {
		t.Fatalf("unexpected drag payload: %+v", p)
	}
}

// TestServer_KeyMessages verifies keyboard events reach the agent.
func TestServer_KeyMessages(t *testing.T) {
	s, _, link := newTestServer(t, DragSummary)
	_ = s.handleMessage(decode(t, `{"t":"key","key":"c","ctrl":true}`))
	_ = s.handleMessage(decode(t, `{"t":"key","key":"F5"}`))
	_ = s.handleMessage(decode(t, `{"t":"key","key":"Enter"}`))
	s.dispatcher.Wait()

	sent := link.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 requests, got %+v", sent)
	}
	endpoints := map[string]bool{sent[0].Endpoint: true, sent[1].Endpoint: true}
	if !endpoints[remote.PathShortcut] || !endpoints[remote.PathSpecial] {
		t.Fatalf("expected shortcut and special requests, got %+v", sent)
	}
}

// TestServer_TrackingToggle verifies disabling tracking blocks clicks and notifies the owner.
func TestServer_TrackingToggle(t *testing.T) {
	s, sess, link := newTestServer(t, DragSummary)
	var notified []bool
	s.onTracking = func(enabled bool) { notified = append(notified, enabled) }

	_ = s.handleMessage(decode(t, `{"t":"tracking","enabled":false}`))
	_ = s.handleMessage(decode(t, `{"t":"click","x":100,"y":100,"button":2}`))
	s.dispatcher.Wait()

	if sess.Tracking() {
		t.Fatalf("expected tracking disabled")
	}
	if len(notified) != 1 || notified[0] {
		t.Fatalf("expected one disabled notification, got %v", notified)
	}
	if n := len(link.Sent()); n != 0 {
		t.Fatalf("expected no requests while tracking is off, got %d", n)
	}
}

// TestServer_ResizeRecomputesViewport verifies resize messages update the session viewport.
func TestServer_ResizeRecomputesViewport(t *testing.T) {
	s, sess, _ := newTestServer(t, DragSummary)
	_ = s.handleMessage(decode(t, `{"t":"resize","w":1000,"h":600}`))
	if v := sess.Viewport(); v.UsableW != 880 || v.UsableH != 440 {
		t.Fatalf("unexpected viewport after resize: %+v", v)
	}
	_ = s.handleMessage(decode(t, `{"t":"resize","w":0,"h":600}`))
	if v := sess.Viewport(); v.UsableW != 880 {
		t.Fatalf("expected invalid resize to keep the viewport, got %+v", v)
	}
}

// TestServer_RealtimeDragStreams verifies realtime mode sends start, moves and end.
func TestServer_RealtimeDragStreams(t *testing.T) {
	s, _, link := newTestServer(t, DragRealtime)
	_ = s.handleMessage(decode(t, `{"t":"down","x":90,"y":90,"button":0}`))
	s.dispatcher.Wait()
	_ = s.handleMessage(decode(t, `{"t":"move","x":100,"y":90}`))
	s.dispatcher.Wait()
	_ = s.handleMessage(decode(t, `{"t":"up","x":100,"y":90,"button":0}`))
	s.dispatcher.Wait()

	sent := link.Mouse()
	if len(sent) != 3 {
		t.Fatalf("expected 3 requests, got %+v", sent)
	}
	if sent[0].Action != remote.MouseDragStart || sent[1].Action != remote.MouseDragMove || sent[2].Action != remote.MouseDragEnd {
		t.Fatalf("unexpected realtime sequence: %+v", sent)
	}
	if sent[2].X != 60 || sent[2].Y != 50 {
		t.Fatalf("expected release at (60,50), got %+v", sent[2])
	}
}

// TestProtocol_DecodesInputFields verifies the browser message fields.
func TestProtocol_DecodesInputFields(t *testing.T) {
	msg := decode(t, `{"t":"wheel","x":12.5,"y":7,"deltaY":-4.5}`)
	if msg.T != "wheel" || msg.X != 12.5 || msg.Y != 7 || msg.DeltaY != -4.5 {
		t.Fatalf("unexpected wheel message: %+v", msg)
	}
	msg = decode(t, `{"t":"key","key":"a","meta":true,"shift":true}`)
	if ev := msg.KeyEvent(); ev.Key != "a" || !ev.Meta || !ev.Shift || ev.Ctrl || ev.Alt {
		t.Fatalf("unexpected key event: %+v", ev)
	}
}

// dialControl opens a websocket to srv with the given request header.
func dialControl(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

// readFeedback reads one feedback message with a deadline.
func readFeedback(t *testing.T, conn *websocket.Conn) (Feedback, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var fb Feedback
	err := conn.ReadJSON(&fb)
	return fb, err
}

// waitMouse polls until link has recorded n mouse payloads.
func waitMouse(t *testing.T, link *testutil.FakeLink, n int) []remote.MousePayload {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		sent := link.Mouse()
		if len(sent) >= n || time.Now().After(deadline) {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestServeHTTP_SendsStateOnConnect verifies a page receives the current state after the upgrade.
func TestServeHTTP_SendsStateOnConnect(t *testing.T) {
	s, _, _ := newTestServer(t, DragSummary)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, _, err := dialControl(t, srv, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	fb, err := readFeedback(t, conn)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if fb.T != FeedbackState || fb.Connected == nil || !*fb.Connected || fb.Viewport == nil || fb.Viewport.UsableW != 1000 {
		t.Fatalf("unexpected state feedback: %+v", fb)
	}
}

// TestServeHTTP_RejectsSecondConnection verifies only one page can drive the link.
func TestServeHTTP_RejectsSecondConnection(t *testing.T) {
	s, _, _ := newTestServer(t, DragSummary)
	srv := httptest.NewServer(s)
	defer srv.Close()

	first, _, err := dialControl(t, srv, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer first.Close()
	if _, err := readFeedback(t, first); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	second, _, err := dialControl(t, srv, nil)
	if err != nil {
		t.Fatalf("second dial failed: %v", err)
	}
	defer second.Close()
	_, err = readFeedback(t, second)
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

// TestServeHTTP_RejectsCrossOrigin verifies a page from another origin cannot connect.
func TestServeHTTP_RejectsCrossOrigin(t *testing.T) {
	s, _, link := newTestServer(t, DragSummary)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, resp, err := dialControl(t, srv, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		conn.Close()
		t.Fatalf("expected cross-origin dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}

	conn, _, err = dialControl(t, srv, http.Header{"Origin": {srv.URL}})
	if err != nil {
		t.Fatalf("same-origin dial failed: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(Message{T: "key", Key: "Enter"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(link.Sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sent := link.Sent(); len(sent) != 1 || sent[0].Endpoint != remote.PathSpecial {
		t.Fatalf("expected one special key from the same-origin page, got %+v", sent)
	}
}

// TestServeHTTP_CloseMidDragReleasesButton verifies a dropped page ends a realtime drag
// before another page can take over.
func TestServeHTTP_CloseMidDragReleasesButton(t *testing.T) {
	s, _, link := newTestServer(t, DragRealtime)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, _, err := dialControl(t, srv, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if _, err := readFeedback(t, conn); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := conn.WriteJSON(Message{T: "down", X: 90, Y: 90}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if sent := waitMouse(t, link, 1); len(sent) != 1 || sent[0].Action != remote.MouseDragStart {
		t.Fatalf("expected drag start, got %+v", sent)
	}
	conn.Close()

	var next *websocket.Conn
	deadline := time.Now().Add(2 * time.Second)
	for next == nil {
		if time.Now().After(deadline) {
			t.Fatalf("no replacement connection accepted")
		}
		c, _, err := dialControl(t, srv, nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		if fb, err := readFeedback(t, c); err == nil && fb.T == FeedbackState {
			next = c
			break
		}
		c.Close()
		time.Sleep(5 * time.Millisecond)
	}
	defer next.Close()

	sent := waitMouse(t, link, 2)
	if len(sent) != 2 || sent[1].Action != remote.MouseDragEnd {
		t.Fatalf("expected drag end after close, got %+v", sent)
	}
	if sent[1].X != 50 || sent[1].Y != 50 {
		t.Fatalf("expected release at the drag start (50,50), got %+v", sent[1])
	}
}
