package app

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/prefs"
	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/web"
)

// RegisterRoutes wires API and static handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	if staticDir == "" {
		staticDir = filepath.Join("internal", "web", "static")
	}

	mux.HandleFunc("/api/connect", a.handleConnect)
	mux.HandleFunc("/api/disconnect", a.handleDisconnect)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/prefs", a.handlePrefs)
	mux.Handle("/ws/control", a.Control())
	mux.HandleFunc("/favicon.ico", handleFavicon)

	mux.Handle("/", staticFileServer(staticDir))
}

type connectRequest struct {
	Address string `json:"address"`
}

type stateResponse struct {
	Connected   bool                `json:"connected"`
	ServerURL   string              `json:"serverUrl,omitempty"`
	SessionID   string              `json:"sessionId,omitempty"`
	ConnectedAt *time.Time          `json:"connectedAt,omitempty"`
	Remote      geometry.Surface    `json:"remote"`
	Viewport    geometry.Viewport   `json:"viewport"`
	PixelRatio  float64             `json:"pixelRatio"`
	Tracking    bool                `json:"tracking"`
	DragMode    string              `json:"dragMode"`
	Agent       *remote.AgentStatus `json:"agent,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type prefsRequest struct {
	Theme string `json:"theme"`
}

// handleConnect connects to the requested agent.
func (a *App) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !allowPost(w, r) {
		return
	}
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := a.Connect(r.Context(), req.Address); err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, ErrNoAddress) {
			code = http.StatusBadRequest
		}
		resp := a.state()
		resp.Error = err.Error()
		writeJSON(w, code, resp)
		return
	}
	writeJSON(w, http.StatusOK, a.state())
}

// handleDisconnect drops the active link.
func (a *App) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !allowPost(w, r) {
		return
	}
	a.Disconnect()
	writeJSON(w, http.StatusOK, a.state())
}

// handleState returns the session state and, when connected, the agent status.
func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	resp := a.state()
	if resp.Connected {
		if st, err := a.agentStatus(r.Context()); err == nil {
			resp.Agent = st
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePrefs returns or updates the saved preferences.
func (a *App) handlePrefs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Prefs())
	case http.MethodPost:
		if !allowPost(w, r) {
			return
		}
		var req prefsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		p := a.updatePrefs(func(p prefs.Prefs) prefs.Prefs {
			p.Theme = req.Theme
			return p
		})
		writeJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// allowPost rejects state-changing requests from other origins or without a JSON body.
// Browsers cannot send a cross-site application/json POST without a preflight.
func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if !sameOrigin(r) {
		log.Printf("api: %s from %q refused", r.URL.Path, r.Header.Get("Origin"))
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	return true
}

// sameOrigin reports whether the Origin header is absent or names the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// state builds the state response from a session snapshot.
func (a *App) state() stateResponse {
	snap := a.session.Snapshot()
	resp := stateResponse{
		Connected:  snap.Connected,
		ServerURL:  snap.ServerURL,
		SessionID:  snap.SessionID,
		Remote:     snap.Remote,
		Viewport:   snap.Viewport,
		PixelRatio: snap.Viewport.PixelRatio(),
		Tracking:   snap.Tracking,
		DragMode:   string(a.dispatcher.Mode()),
	}
	if snap.Connected {
		at := snap.ConnectedAt
		resp.ConnectedAt = &at
	}
	return resp
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// staticFileServer returns a handler for static assets, preferring disk then embed.
func staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	embedded, err := web.StaticFS()
	if err != nil {
		log.Printf("static assets unavailable: %v", err)
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
