package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/control"
	"github.com/Rixmerz/MultiComputer/internal/geometry"
	"github.com/Rixmerz/MultiComputer/internal/session"
)

// TestStartKeyboardRelay_NonTerminalLeavesServerRunning verifies a relay that cannot
// start does not cancel the server context.
func TestStartKeyboardRelay_NonTerminalLeavesServerRunning(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	sess := session.New(geometry.DefaultSurface, geometry.DefaultMargin)
	d := control.NewDispatcher(sess, nil, control.DragSummary)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case <-startKeyboardRelay(ctx, r, sess, d, "127.0.0.1:0"):
	case <-time.After(2 * time.Second):
		t.Fatalf("expected relay on a pipe to end")
	}
	if ctx.Err() != nil {
		t.Fatalf("expected server context to stay live, got %v", ctx.Err())
	}
}
