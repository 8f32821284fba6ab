// Package control classifies browser input into remote actions and dispatches them.
package control

import (
	"fmt"
	"strings"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
)

// ActionType identifies the kind of classified user intent.
type ActionType string

const (
	// ActHover reports the pointer position for presentation only.
	ActHover ActionType = "hover"
	// ActMove moves the remote cursor.
	ActMove ActionType = "move"
	// ActClick clicks at a position.
	ActClick ActionType = "click"
	// ActDragStart presses the primary button to begin a drag.
	ActDragStart ActionType = "drag_start"
	// ActDragMove moves the pointer while a drag is active.
	ActDragMove ActionType = "drag_move"
	// ActDragEnd finishes a drag.
	ActDragEnd ActionType = "drag_end"
	// ActScroll scrolls at a position.
	ActScroll ActionType = "scroll"
	// ActShortcut triggers a named shortcut.
	ActShortcut ActionType = "shortcut"
	// ActSpecialKey presses a named key.
	ActSpecialKey ActionType = "special_key"
	// ActCharacter types one printable character.
	ActCharacter ActionType = "character"
)

// Button is a remote mouse button name.
type Button string

const (
	// ButtonLeft is the primary button.
	ButtonLeft Button = "left"
	// ButtonMiddle is the wheel button.
	ButtonMiddle Button = "middle"
	// ButtonRight is the secondary button.
	ButtonRight Button = "right"
)

// ButtonFromDOM maps a DOM MouseEvent.button index to a Button.
func ButtonFromDOM(idx int) Button {
	switch idx {
	case 1:
		return ButtonMiddle
	case 2:
		return ButtonRight
	default:
		return ButtonLeft
	}
}

// Action describes one classified intent in remote coordinates.
//
// For ActDragEnd, X/Y hold the drag start and ToX/ToY the release point.
type Action struct {
	Type     ActionType
	X        int
	Y        int
	ToX      int
	ToY      int
	Button   Button
	Amount   int
	Text     string
	Key      string
	InUsable bool
	SurfaceX float64
	SurfaceY float64
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Type {
	case ActShortcut:
		return fmt.Sprintf("shortcut %s", a.Key)
	case ActSpecialKey:
		return fmt.Sprintf("key %s", a.Key)
	case ActCharacter:
		return fmt.Sprintf("char %q", a.Text)
	case ActDragEnd:
		return fmt.Sprintf("drag_end (%d,%d)->(%d,%d) %s", a.X, a.Y, a.ToX, a.ToY, a.Button)
	case ActScroll:
		return fmt.Sprintf("scroll %d at (%d,%d)", a.Amount, a.X, a.Y)
	default:
		if a.Button != "" {
			return fmt.Sprintf("%s (%d,%d) %s", a.Type, a.X, a.Y, a.Button)
		}
		return fmt.Sprintf("%s (%d,%d)", a.Type, a.X, a.Y)
	}
}

// pointOf returns the action's remote position.
func pointOf(a Action) geometry.Point {
	return geometry.Point{X: a.X, Y: a.Y}
}

// DropReason explains why an event produced no network action.
type DropReason string

const (
	// DropNotConnected means no remote link is active.
	DropNotConnected DropReason = "not connected"
	// DropTrackingDisabled means pointer forwarding is switched off.
	DropTrackingDisabled DropReason = "tracking disabled"
	// DropOutsideArea means the point is outside the near-edge band.
	DropOutsideArea DropReason = "outside valid area"
	// DropClickAfterDrag means the click belongs to a drag release.
	DropClickAfterDrag DropReason = "click after drag"
	// DropNoScroll means a wheel delta rounded to a zero scroll amount.
	DropNoScroll DropReason = "zero scroll"
)

// Result is the output of one classified event.
type Result struct {
	Actions []Action
	Dropped DropReason
}

// dropped returns a Result carrying only a drop reason.
func dropped(reason DropReason) Result {
	return Result{Dropped: reason}
}

// Input is the caller-owned context for classifying one event.
type Input struct {
	Connected bool
	Tracking  bool
	Viewport  geometry.Viewport
}

// DragMode selects how a drag reaches the remote agent.
type DragMode string

const (
	// DragSummary sends one drag request on release.
	DragSummary DragMode = "summary"
	// DragRealtime streams press, moves and release.
	DragRealtime DragMode = "realtime"
)

// ParseDragMode validates a drag mode name.
func ParseDragMode(s string) (DragMode, error) {
	switch DragMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DragSummary:
		return DragSummary, nil
	case DragRealtime:
		return DragRealtime, nil
	default:
		return "", fmt.Errorf("unknown drag mode %q", s)
	}
}
