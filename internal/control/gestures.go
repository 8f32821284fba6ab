package control

import (
	"math"
	"time"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
)

const (
	// dragThreshold is the remote distance a release must exceed to count as a drag.
	dragThreshold = 2.0
	// clickSuppressWindow is how long a finished drag swallows the trailing click.
	clickSuppressWindow = 50 * time.Millisecond

	trackpadDeltaLimit = 10
	trackpadMultiplier = 3
	wheelMinAmount     = 10
	wheelDivisor       = 3
	maxScrollAmount    = 50
)

// DragState is the tracker's drag phase.
type DragState struct {
	Active      bool
	Start       geometry.Point
	StartX      float64
	StartY      float64
	StartButton Button
}

// GestureState turns pointer samples into actions. It is not safe for concurrent use.
type GestureState struct {
	mode          DragMode
	drag          DragState
	suppressUntil time.Time
	now           func() time.Time
}

// NewGestureState returns an idle tracker using mode for drags.
func NewGestureState(mode DragMode) *GestureState {
	if mode != DragRealtime {
		mode = DragSummary
	}
	return &GestureState{mode: mode, now: time.Now}
}

// SetNowFunc overrides the clock used for click suppression.
func (g *GestureState) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		g.now = fn
	}
}

// Drag returns the current drag phase.
func (g *GestureState) Drag() DragState {
	return g.drag
}

// Mode returns the drag strategy.
func (g *GestureState) Mode() DragMode {
	return g.mode
}

// HandleMove processes a pointer move at surface point (x, y).
func (g *GestureState) HandleMove(in Input, x, y float64) Result {
	m := in.Viewport.Map(x, y)
	if g.drag.Active {
		return Result{Actions: []Action{pointAction(ActDragMove, m)}}
	}

	hover := pointAction(ActHover, m)
	out := Result{Actions: []Action{hover}}
	switch {
	case !in.Connected:
		out.Dropped = DropNotConnected
	case !in.Tracking:
		out.Dropped = DropTrackingDisabled
	case !m.InUsable:
		out.Dropped = DropOutsideArea
	default:
		out.Actions = append(out.Actions, pointAction(ActMove, m))
	}
	return out
}

// HandleDown processes a button press. Only the primary button can start a drag;
// other buttons are classified as an immediate click.
func (g *GestureState) HandleDown(in Input, button Button, x, y float64) Result {
	if button != ButtonLeft {
		return g.classifyClick(in, button, x, y)
	}
	if reason, ok := gate(in); !ok {
		return dropped(reason)
	}
	m := in.Viewport.Map(x, y)
	if !m.NearEdge {
		return dropped(DropOutsideArea)
	}

	g.drag = DragState{
		Active:      true,
		Start:       m.Remote,
		StartX:      x,
		StartY:      y,
		StartButton: button,
	}
	if g.mode == DragRealtime {
		a := pointAction(ActDragStart, m)
		a.Button = button
		return Result{Actions: []Action{a}}
	}
	return Result{}
}

// HandleUp processes a button release and finishes an active drag.
func (g *GestureState) HandleUp(in Input, button Button, x, y float64) Result {
	if button != ButtonLeft || !g.drag.Active {
		return Result{}
	}
	start := g.drag
	g.drag = DragState{}

	m := in.Viewport.Map(x, y)
	if g.mode == DragSummary && geometry.Distance(start.Start, m.Remote) <= dragThreshold {
		return Result{}
	}

	g.suppressUntil = g.now().Add(clickSuppressWindow)
	return Result{Actions: []Action{{
		Type:     ActDragEnd,
		X:        start.Start.X,
		Y:        start.Start.Y,
		ToX:      m.Remote.X,
		ToY:      m.Remote.Y,
		Button:   start.StartButton,
		InUsable: m.InUsable,
		SurfaceX: x,
		SurfaceY: y,
	}}}
}

// HandleClick processes a click event that follows a press and release.
// A primary click right after a finished drag is swallowed.
func (g *GestureState) HandleClick(in Input, button Button, x, y float64) Result {
	if button == ButtonLeft && !g.suppressUntil.IsZero() {
		active := g.now().Before(g.suppressUntil)
		g.suppressUntil = time.Time{}
		if active {
			return dropped(DropClickAfterDrag)
		}
	}
	return g.classifyClick(in, button, x, y)
}

// classifyClick emits a click unless the point is outside the band.
func (g *GestureState) classifyClick(in Input, button Button, x, y float64) Result {
	if reason, ok := gate(in); !ok {
		return dropped(reason)
	}
	m := in.Viewport.Map(x, y)
	if !m.NearEdge {
		return dropped(DropOutsideArea)
	}
	a := pointAction(ActClick, m)
	a.Button = button
	return Result{Actions: []Action{a}}
}

// HandleWheel processes a wheel event with the raw DOM deltaY.
func (g *GestureState) HandleWheel(in Input, x, y, deltaY float64) Result {
	if reason, ok := gate(in); !ok {
		return dropped(reason)
	}
	m := in.Viewport.Map(x, y)
	if !m.NearEdge {
		return dropped(DropOutsideArea)
	}
	amount := ScrollAmount(deltaY)
	if amount == 0 {
		return dropped(DropNoScroll)
	}
	a := pointAction(ActScroll, m)
	a.Amount = amount
	return Result{Actions: []Action{a}}
}

// Reset abandons any drag and pending click suppression. In realtime mode an
// abandoned drag returns the release needed to free the remote button.
func (g *GestureState) Reset() Result {
	drag := g.drag
	g.drag = DragState{}
	g.suppressUntil = time.Time{}
	if !drag.Active || g.mode != DragRealtime {
		return Result{}
	}
	return Result{Actions: []Action{{
		Type:   ActDragEnd,
		X:      drag.Start.X,
		Y:      drag.Start.Y,
		ToX:    drag.Start.X,
		ToY:    drag.Start.Y,
		Button: drag.StartButton,
	}}}
}

// ScrollAmount converts a DOM wheel deltaY into a signed remote scroll amount.
// Small deltas come from trackpads and are amplified; wheel notches get a floor.
func ScrollAmount(deltaY float64) int {
	var amount float64
	if math.Abs(deltaY) < trackpadDeltaLimit {
		amount = -deltaY * trackpadMultiplier
	} else {
		amount = -sign(deltaY) * math.Max(wheelMinAmount, math.Abs(deltaY)/wheelDivisor)
	}
	amount = math.Max(-maxScrollAmount, math.Min(maxScrollAmount, amount))
	return int(math.Round(amount))
}

// gate checks the connection and tracking flags shared by every pointer action.
func gate(in Input) (DropReason, bool) {
	if !in.Connected {
		return DropNotConnected, false
	}
	if !in.Tracking {
		return DropTrackingDisabled, false
	}
	return "", true
}

// pointAction builds a positioned action from a mapped point.
func pointAction(t ActionType, m geometry.Mapped) Action {
	return Action{
		Type:     t,
		X:        m.Remote.X,
		Y:        m.Remote.Y,
		InUsable: m.InUsable,
		SurfaceX: m.SurfaceX,
		SurfaceY: m.SurfaceY,
	}
}

// sign returns -1, 0 or 1.
func sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
