// Package main starts the MultiComputer client.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/app"
	"github.com/Rixmerz/MultiComputer/internal/config"
	"github.com/Rixmerz/MultiComputer/internal/control"
	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/session"
	"github.com/Rixmerz/MultiComputer/internal/termkeys"
	"github.com/Rixmerz/MultiComputer/internal/throttle"
)

// options carries command-line flags into run.
type options struct {
	debug    bool
	keyboard bool
	connect  string
}

// startKeyboardRelay forwards terminal keys until the relay ends. Ending the
// relay leaves the server running; the returned channel closes when it ends.
func startKeyboardRelay(ctx context.Context, in *os.File, sess *session.Session, dispatcher *control.Dispatcher, listenAddr string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("keyboard: relaying terminal keys (Ctrl+] stops the relay)")
		err := termkeys.Relay(ctx, in, func(ev control.KeyEvent) {
			if a, ok := control.ClassifyKey(sess.Connected(), ev, control.ModCtrl); ok {
				dispatcher.Dispatch(a)
			}
		})
		if err != nil {
			log.Printf("keyboard: %v", err)
		}
		if ctx.Err() == nil {
			log.Printf("keyboard: relay stopped, server still listening on %s", listenAddr)
		}
	}()
	return done
}

// run wires the application and blocks until shutdown.
func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	debug := opts.debug || cfg.Debug
	control.SetDebugLogging(debug)
	if debug {
		log.Printf("debug: enabled")
	}
	logStartup(cfg)

	mode, err := control.ParseDragMode(cfg.DragMode)
	if err != nil {
		return err
	}
	primary, err := control.ParseModifier(cfg.PrimaryModifier)
	if err != nil {
		return err
	}

	sess := session.New(geometry.Surface{Width: cfg.ScreenWidth, Height: cfg.ScreenHeight}, cfg.EdgeMargin)
	th := throttle.New(map[throttle.Channel]time.Duration{
		throttle.ChannelMove:   cfg.MoveThrottle(),
		throttle.ChannelScroll: cfg.ScrollThrottle(),
	})
	dispatcher := control.NewDispatcher(sess, th, mode)

	appInstance, err := app.New(cfg, sess, dispatcher, primary, &http.Client{})
	if err != nil {
		return err
	}
	if err := appInstance.Start(); err != nil {
		return err
	}
	defer func() {
		if err := appInstance.Stop(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux, "")
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if addr := opts.connect; addr != "" || cfg.ServerAddr != "" {
		go func() {
			if err := appInstance.Connect(ctx, addr); err != nil {
				log.Printf("connect: %v", err)
			}
		}()
	}

	if opts.keyboard {
		startKeyboardRelay(ctx, os.Stdin, sess, dispatcher, cfg.ListenAddr)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// logFatal prints and exits for startup failures.
func logFatal(err error) {
	log.Printf("fatal: %v", err)
	os.Exit(1)
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Config) {
	log.Printf("MultiComputer starting")
	logFileStatus("config check", filepath.Join(cfg.DataDir, "config.yaml"))
	logFileStatus("env check", filepath.Join(cfg.DataDir, ".env"))
	log.Printf("drag mode: %s, primary modifier: %s", cfg.DragMode, cfg.PrimaryModifier)
	log.Printf("throttle: move %s, scroll %s", cfg.MoveThrottle(), cfg.ScrollThrottle())
	if cfg.ServerAddr != "" {
		log.Printf("server addr: %s", cfg.ServerAddr)
	}
	logListenStatus(cfg.ListenAddr)
}

// logFileStatus reports whether an optional file was found.
func logFileStatus(label, path string) {
	if fileExists(path) {
		log.Printf("%s: ok (%s)", label, path)
	} else {
		log.Printf("%s: missing (%s)", label, path)
	}
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(addr string) {
	log.Printf("listen addr: %s", addr)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Printf("local url: http://%s", net.JoinHostPort(host, port))
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
