package control

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/session"
	"github.com/gorilla/websocket"
)

// Server handles websocket input from the surrogate-screen page.
//
// The read loop is the only caller of the gesture tracker, so gesture state is
// never touched concurrently.
type Server struct {
	mu         sync.Mutex
	writeMu    sync.Mutex
	upgrader   websocket.Upgrader
	session    *session.Session
	dispatcher *Dispatcher
	gestures   *GestureState
	primary    Modifier
	onTracking func(enabled bool)
	conn       *websocket.Conn
}

// NewServer creates a control websocket server.
func NewServer(sess *session.Session, dispatcher *Dispatcher, primary Modifier, onTracking func(enabled bool)) *Server {
	return &Server{
		session:    sess,
		dispatcher: dispatcher,
		gestures:   NewGestureState(dispatcher.Mode()),
		primary:    primary,
		onTracking: onTracking,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP upgrades the connection and processes input messages.
// Upgrades from another origin are refused by the upgrader's same-origin check.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("control: upgrade from %q refused: %v", r.Header.Get("Origin"), err)
		return
	}
	if err := s.acceptConn(conn); err != nil {
		rejectConn(conn, err.Error())
		return
	}
	defer s.cleanupConn(conn)

	s.NotifyState()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("control: read: %v", err)
			}
			return
		}
		if err := s.handleMessage(msg); err != nil {
			log.Printf("control: %v", err)
			return
		}
	}
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("control connection already active")
	}
	s.conn = conn
	return nil
}

// cleanupConn releases any held drag and clears the active connection.
// The reset runs while conn is still active so a new page cannot be accepted
// until the gesture tracker is idle.
func (s *Server) cleanupConn(conn *websocket.Conn) {
	s.dispatcher.DispatchAll(s.gestures.Reset().Actions)
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

// rejectConn sends a policy violation close and closes the socket.
func rejectConn(conn *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(1*time.Second))
	_ = conn.Close()
}

// handleMessage dispatches a single input message.
func (s *Server) handleMessage(msg Message) error {
	switch msg.T {
	case "move":
		s.handleMove(msg)
	case "down":
		s.apply("down", s.gestures.HandleDown(s.input(), ButtonFromDOM(msg.Button), msg.X, msg.Y))
	case "up":
		s.apply("up", s.gestures.HandleUp(s.input(), ButtonFromDOM(msg.Button), msg.X, msg.Y))
	case "click":
		s.apply("click", s.gestures.HandleClick(s.input(), ButtonFromDOM(msg.Button), msg.X, msg.Y))
	case "wheel":
		s.apply("scroll", s.gestures.HandleWheel(s.input(), msg.X, msg.Y, msg.DeltaY))
	case "key":
		s.handleKey(msg.KeyEvent())
	case "resize":
		s.handleResize(msg.W, msg.H)
	case "tracking":
		if msg.Enabled != nil {
			s.handleTracking(*msg.Enabled)
		}
	default:
		debugf("control: ignoring message %q", msg.T)
	}
	return nil
}

// input captures the caller-owned flags for one classification.
func (s *Server) input() Input {
	snap := s.session.Snapshot()
	return Input{
		Connected: snap.Connected,
		Tracking:  snap.Tracking,
		Viewport:  snap.Viewport,
	}
}

// handleMove classifies a pointer move and echoes the hover position.
func (s *Server) handleMove(msg Message) {
	res := s.gestures.HandleMove(s.input(), msg.X, msg.Y)
	drag := s.gestures.Drag()
	for _, a := range res.Actions {
		switch a.Type {
		case ActHover, ActDragMove:
			pt := pointOf(a)
			s.send(Feedback{
				T:        FeedbackHover,
				X:        a.SurfaceX,
				Y:        a.SurfaceY,
				Remote:   &pt,
				InUsable: a.InUsable,
				Dragging: drag.Active,
				FromX:    drag.StartX,
				FromY:    drag.StartY,
			})
		}
	}
	s.dispatcher.DispatchAll(res.Actions)
}

// apply dispatches a classification result and reports drops to the page.
func (s *Server) apply(kind string, res Result) {
	if res.Dropped != "" {
		debugf("control: %s dropped: %s", kind, res.Dropped)
		if res.Dropped != DropClickAfterDrag && res.Dropped != DropNoScroll {
			s.send(Feedback{T: FeedbackLog, Level: "warning", Text: fmt.Sprintf("%s ignored: %s", kind, res.Dropped)})
		}
		return
	}
	for _, a := range res.Actions {
		if outcome := s.dispatcher.Dispatch(a); outcome == OutcomeSent && a.Type != ActDragMove {
			debugf("control: %s -> %s", a, outcome)
		}
	}
}

// handleKey classifies and dispatches a key press.
func (s *Server) handleKey(ev KeyEvent) {
	a, ok := ClassifyKey(s.session.Connected(), ev, s.primary)
	if !ok {
		return
	}
	s.dispatcher.Dispatch(a)
}

// handleResize recomputes the viewport for a new container size.
func (s *Server) handleResize(w, h int) {
	if _, err := s.session.Resize(w, h); err != nil {
		log.Printf("control: %v", err)
	}
	s.NotifyState()
}

// handleTracking toggles pointer forwarding.
func (s *Server) handleTracking(enabled bool) {
	s.session.SetTracking(enabled)
	if !enabled {
		s.dispatcher.DispatchAll(s.gestures.Reset().Actions)
	}
	if s.onTracking != nil {
		s.onTracking(enabled)
	}
	s.NotifyState()
}

// NotifyState pushes the connection flag and viewport to the active page.
func (s *Server) NotifyState() {
	snap := s.session.Snapshot()
	s.send(Feedback{
		T:         FeedbackState,
		Viewport:  &snap.Viewport,
		Connected: &snap.Connected,
		Tracking:  &snap.Tracking,
	})
}

// NotifyLog pushes a log line to the active page.
func (s *Server) NotifyLog(level, text string) {
	s.send(Feedback{T: FeedbackLog, Level: level, Text: text})
}

// send writes feedback to the active connection, if any.
func (s *Server) send(fb Feedback) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(fb); err != nil {
		debugf("control: write %s: %v", fb.T, err)
	}
}
