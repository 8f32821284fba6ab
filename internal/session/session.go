// Package session holds runtime state for the active remote connection.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/remote"
)

const (
	// DefaultContainerWidth is the assumed browser container width until the page reports one.
	DefaultContainerWidth = 1280
	// DefaultContainerHeight is the assumed browser container height until the page reports one.
	DefaultContainerHeight = 720
)

// Snapshot represents a read-only view of the current session state.
type Snapshot struct {
	Connected   bool
	Epoch       uint64
	ServerURL   string
	SessionID   string
	ConnectedAt time.Time
	Remote      geometry.Surface
	ContainerW  int
	ContainerH  int
	Viewport    geometry.Viewport
	Tracking    bool
}

// Session holds the connection flag, the remote surface and the viewport derived from it.
//
// Every Connect and Disconnect bumps the epoch, so a completion tagged with an
// older epoch can be recognized and ignored.
type Session struct {
	mu          sync.RWMutex
	connected   bool
	epoch       uint64
	link        remote.Link
	serverURL   string
	sessionID   string
	connectedAt time.Time
	remote      geometry.Surface
	containerW  int
	containerH  int
	margin      int
	viewport    geometry.Viewport
	tracking    bool
}

// New returns a disconnected session using fallback until the remote reports its size.
func New(fallback geometry.Surface, margin int) *Session {
	if !fallback.Valid() {
		fallback = geometry.DefaultSurface
	}
	if margin < 0 {
		margin = geometry.DefaultMargin
	}
	s := &Session{
		remote:     fallback,
		containerW: DefaultContainerWidth,
		containerH: DefaultContainerHeight,
		margin:     margin,
		tracking:   true,
	}
	if v, err := geometry.Compute(s.containerW, s.containerH, s.remote, s.margin); err == nil {
		s.viewport = v
	}
	return s
}

// Connect marks the session connected through link and returns the new epoch.
func (s *Session) Connect(link remote.Link, serverURL, sessionID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.connected = true
	s.link = link
	s.serverURL = serverURL
	s.sessionID = sessionID
	s.connectedAt = time.Now()
	return s.epoch
}

// Disconnect tears down the connection. It reports whether the session was connected.
func (s *Session) Disconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectLocked()
}

// Invalidate disconnects only if epoch is still current.
func (s *Session) Invalidate(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	return s.disconnectLocked()
}

// disconnectLocked clears connection state. Callers must hold mu.
func (s *Session) disconnectLocked() bool {
	was := s.connected
	s.epoch++
	s.connected = false
	s.link = nil
	s.sessionID = ""
	s.connectedAt = time.Time{}
	return was
}

// Connected reports whether the remote link is active.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Epoch returns the current connection epoch.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Link returns the active link and its epoch. ok is false while disconnected.
func (s *Session) Link() (link remote.Link, epoch uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected || s.link == nil {
		return nil, s.epoch, false
	}
	return s.link, s.epoch, true
}

// ServerURL returns the last remembered agent URL.
func (s *Session) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverURL
}

// Resize records a new container size and recomputes the viewport.
// Invalid sizes are rejected and the previous viewport is kept.
func (s *Session) Resize(w, h int) (geometry.Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := geometry.Compute(w, h, s.remote, s.margin)
	if err != nil {
		return s.viewport, fmt.Errorf("resize %dx%d: %w", w, h, err)
	}
	s.containerW, s.containerH = w, h
	s.viewport = v
	return v, nil
}

// SetRemoteSurface records the remote screen size and recomputes the viewport.
func (s *Session) SetRemoteSurface(surface geometry.Surface) (geometry.Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := geometry.Compute(s.containerW, s.containerH, surface, s.margin)
	if err != nil {
		return s.viewport, fmt.Errorf("remote surface %dx%d: %w", surface.Width, surface.Height, err)
	}
	s.remote = surface
	s.viewport = v
	return v, nil
}

// RemoteSurface returns the current remote screen size.
func (s *Session) RemoteSurface() geometry.Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// Viewport returns the current derived viewport.
func (s *Session) Viewport() geometry.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// SetTracking toggles whether pointer input is forwarded.
func (s *Session) SetTracking(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = enabled
}

// Tracking reports whether pointer input is forwarded.
func (s *Session) Tracking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracking
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Connected:   s.connected,
		Epoch:       s.epoch,
		ServerURL:   s.serverURL,
		SessionID:   s.sessionID,
		ConnectedAt: s.connectedAt,
		Remote:      s.remote,
		ContainerW:  s.containerW,
		ContainerH:  s.containerH,
		Viewport:    s.viewport,
		Tracking:    s.tracking,
	}
}
