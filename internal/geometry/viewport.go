package geometry

import (
	"errors"
	"fmt"
	"math"
)

const (
	// ContainerPadding is the total padding removed from the container (20 px per side).
	ContainerPadding = 40
	// DefaultMargin is the width of the margin band around the usable rectangle.
	DefaultMargin = 40
	// EdgeTolerance is how far outside the usable rectangle actions still register, in surface pixels.
	EdgeTolerance = 10
)

// ErrInvalidSize reports a non-positive container or remote size.
var ErrInvalidSize = errors.New("geometry: non-positive size")

// DefaultSurface is assumed until the remote reports its real size.
var DefaultSurface = Surface{Width: 1920, Height: 1080}

// Surface is the size of the remote coordinate space.
type Surface struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Surface) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Point is a position in remote pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Viewport is the rendering surface derived from a container size and a remote surface.
//
// UsableW/UsableH preserve the remote aspect ratio, SurfaceW = UsableW + 2*Margin
// (same for height) and Scale = UsableW / Remote.Width. A Viewport is always
// recomputed from scratch, never patched.
type Viewport struct {
	SurfaceW int     `json:"surfaceWidth"`
	SurfaceH int     `json:"surfaceHeight"`
	Margin   int     `json:"margin"`
	UsableW  int     `json:"usableWidth"`
	UsableH  int     `json:"usableHeight"`
	Scale    float64 `json:"scale"`
	Remote   Surface `json:"remote"`
}

// Compute fits the remote surface into the container, leaving padding and a margin band.
func Compute(containerW, containerH int, remote Surface, margin int) (Viewport, error) {
	if containerW <= 0 || containerH <= 0 {
		return Viewport{}, fmt.Errorf("%w: container %dx%d", ErrInvalidSize, containerW, containerH)
	}
	if !remote.Valid() {
		return Viewport{}, fmt.Errorf("%w: remote %dx%d", ErrInvalidSize, remote.Width, remote.Height)
	}
	if margin < 0 {
		return Viewport{}, fmt.Errorf("%w: margin %d", ErrInvalidSize, margin)
	}

	maxW := containerW - ContainerPadding - 2*margin
	maxH := containerH - ContainerPadding - 2*margin
	if maxW <= 0 || maxH <= 0 {
		return Viewport{}, fmt.Errorf("%w: container %dx%d too small for margin %d", ErrInvalidSize, containerW, containerH, margin)
	}

	aspect := float64(remote.Width) / float64(remote.Height)
	var usableW, usableH int
	if aspect > float64(maxW)/float64(maxH) {
		usableW = maxW
		usableH = int(math.Round(float64(usableW) / aspect))
	} else {
		usableH = maxH
		usableW = int(math.Round(float64(usableH) * aspect))
	}
	// Extreme aspect ratios can round a side away.
	usableW = max(usableW, 1)
	usableH = max(usableH, 1)

	return Viewport{
		SurfaceW: usableW + 2*margin,
		SurfaceH: usableH + 2*margin,
		Margin:   margin,
		UsableW:  usableW,
		UsableH:  usableH,
		Scale:    float64(usableW) / float64(remote.Width),
		Remote:   remote,
	}, nil
}

// Ready reports whether the viewport can map points.
func (v Viewport) Ready() bool {
	return v.Scale > 0 && v.Remote.Valid()
}

// PixelRatio returns how many remote pixels one surface pixel covers.
func (v Viewport) PixelRatio() float64 {
	if v.Scale <= 0 {
		return 0
	}
	return 1 / v.Scale
}

// Usable returns the usable rectangle in margin-adjusted coordinates.
func (v Viewport) Usable() Rect {
	return Rect{W: float64(v.UsableW), H: float64(v.UsableH)}
}

// Mapped is the result of mapping one surface point into remote space.
type Mapped struct {
	// Remote is clamped to [0, dim-1].
	Remote Point
	// Raw is the rounded remote point before clamping, saturated to the int32 range.
	Raw      Point
	SurfaceX float64
	SurfaceY float64
	// AdjustedX/AdjustedY are surface coordinates with the margin removed.
	AdjustedX float64
	AdjustedY float64
	InUsable  bool
	NearEdge  bool
}

// Map converts a rendering-surface point into remote coordinates.
func (v Viewport) Map(x, y float64) Mapped {
	m := Mapped{SurfaceX: x, SurfaceY: y}
	if !v.Ready() {
		return m
	}
	m.AdjustedX = x - float64(v.Margin)
	m.AdjustedY = y - float64(v.Margin)
	m.Raw = Point{
		X: roundInt(m.AdjustedX / v.Scale),
		Y: roundInt(m.AdjustedY / v.Scale),
	}
	m.Remote = Point{
		X: clampInt(m.Raw.X, 0, v.Remote.Width-1),
		Y: clampInt(m.Raw.Y, 0, v.Remote.Height-1),
	}

	usable := v.Usable()
	m.InUsable = usable.Contains(m.AdjustedX, m.AdjustedY)
	m.NearEdge = usable.Grow(EdgeTolerance).Contains(m.AdjustedX, m.AdjustedY)
	return m
}

// Distance returns the Euclidean distance between two remote points.
func Distance(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
