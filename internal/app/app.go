// Package app wires the remote link, the control websocket and the HTTP API together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rixmerz/MultiComputer/internal/config"
	"github.com/Rixmerz/MultiComputer/internal/control"
	"github.com/Rixmerz/MultiComputer/internal/prefs"
	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/session"
)

// statusTimeout bounds the agent status query made for /api/state.
const statusTimeout = 2 * time.Second

// ErrNoAddress is returned when a connect request names no server and none is remembered.
var ErrNoAddress = errors.New("no server address")

// App coordinates the connect flow, the control websocket and saved preferences.
type App struct {
	mu         sync.Mutex
	cfg        config.Config
	session    *session.Session
	dispatcher *control.Dispatcher
	control    *control.Server
	httpClient *http.Client

	prefsMu sync.Mutex
	prefs   prefs.Prefs
}

// New creates a new application with its dependencies wired.
func New(cfg config.Config, sess *session.Session, dispatcher *control.Dispatcher, primary control.Modifier, httpClient *http.Client) (*App, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	app := &App{
		cfg:        cfg,
		session:    sess,
		dispatcher: dispatcher,
		httpClient: httpClient,
		prefs:      prefs.Default(),
	}
	app.control = control.NewServer(sess, dispatcher, primary, app.rememberTracking)
	dispatcher.SetInvalidateHook(app.connectionLost)
	return app, nil
}

// Start loads saved preferences and applies them to the session.
func (a *App) Start() error {
	p, err := prefs.Load(a.cfg.PrefsPath)
	if err != nil {
		log.Printf("prefs: load %s: %v (using defaults)", a.cfg.PrefsPath, err)
	}
	a.prefsMu.Lock()
	a.prefs = p
	a.prefsMu.Unlock()
	a.session.SetTracking(p.Tracking())
	return nil
}

// Connect pings the agent at addr and, when it answers, makes it the active link.
//
// Any failure leaves the session disconnected. A failed screen query after a
// successful ping keeps the last known remote surface.
func (a *App) Connect(ctx context.Context, addr string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = a.defaultAddress()
	}
	if addr == "" {
		return ErrNoAddress
	}

	base, err := remote.BaseURL(addr, a.cfg.RemotePort)
	if err != nil {
		return err
	}
	client := remote.NewClient(base, uuid.NewString(), a.httpClient)

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout())
	err = client.Ping(pingCtx)
	cancel()
	if err != nil {
		if a.session.Disconnect() {
			a.control.NotifyState()
		}
		log.Printf("connect: %s unreachable: %v", base, err)
		a.control.NotifyLog("error", fmt.Sprintf("could not connect to %s", base))
		return fmt.Errorf("connect %s: %w", base, err)
	}

	epoch := a.session.Connect(client, base, client.SessionID())
	log.Printf("connect: ok (%s session=%s epoch=%d)", base, client.SessionID(), epoch)

	screenCtx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout())
	screen, err := client.Screen(screenCtx)
	cancel()
	if err != nil {
		log.Printf("connect: screen size unavailable, keeping %dx%d: %v", a.session.RemoteSurface().Width, a.session.RemoteSurface().Height, err)
	} else if _, err := a.session.SetRemoteSurface(screen); err != nil {
		log.Printf("connect: %v", err)
	} else {
		log.Printf("connect: remote screen %dx%d", screen.Width, screen.Height)
	}

	a.control.NotifyState()
	a.control.NotifyLog("success", fmt.Sprintf("connected to %s", base))
	a.updatePrefs(func(p prefs.Prefs) prefs.Prefs {
		p.LastServer = addr
		return p
	})
	return nil
}

// Disconnect drops the active link.
func (a *App) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.Disconnect() {
		log.Printf("connect: disconnected")
		a.control.NotifyState()
		a.control.NotifyLog("info", "disconnected")
	}
}

// Stop drops the active link and waits for in-flight sends.
func (a *App) Stop() error {
	a.Disconnect()
	a.dispatcher.Close()
	return nil
}

// Control returns the control websocket handler.
func (a *App) Control() *control.Server {
	return a.control
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *control.Dispatcher {
	return a.dispatcher
}

// Prefs returns the current preferences.
func (a *App) Prefs() prefs.Prefs {
	a.prefsMu.Lock()
	defer a.prefsMu.Unlock()
	return a.prefs
}

// defaultAddress returns the configured server, then the remembered one.
func (a *App) defaultAddress() string {
	if a.cfg.ServerAddr != "" {
		return a.cfg.ServerAddr
	}
	return a.Prefs().LastServer
}

// connectionLost reports a transport failure that dropped the session.
func (a *App) connectionLost(err error) {
	a.control.NotifyState()
	a.control.NotifyLog("error", fmt.Sprintf("connection lost: %v", err))
}

// rememberTracking saves the tracking toggle.
func (a *App) rememberTracking(enabled bool) {
	a.updatePrefs(func(p prefs.Prefs) prefs.Prefs {
		return p.WithTracking(enabled)
	})
}

// updatePrefs applies fn to the preferences and persists the result.
func (a *App) updatePrefs(fn func(prefs.Prefs) prefs.Prefs) prefs.Prefs {
	a.prefsMu.Lock()
	a.prefs = prefs.Normalize(fn(a.prefs))
	p := a.prefs
	a.prefsMu.Unlock()

	if a.cfg.PrefsPath == "" {
		return p
	}
	if err := prefs.Save(a.cfg.PrefsPath, p); err != nil {
		log.Printf("prefs: save %s: %v", a.cfg.PrefsPath, err)
	}
	return p
}

// agentStatus queries the active agent's status, if the link supports it.
func (a *App) agentStatus(ctx context.Context) (*remote.AgentStatus, error) {
	link, _, ok := a.session.Link()
	if !ok {
		return nil, remote.ErrNotConnected
	}
	client, ok := link.(*remote.Client)
	if !ok {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	st, err := client.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
