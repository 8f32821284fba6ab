package control

import "github.com/Rixmerz/MultiComputer/internal/geometry"

// Message is an input event sent by the browser page over the control websocket.
//
// X and Y are rendering-surface pixels. Button is the DOM MouseEvent.button index.
type Message struct {
	T       string  `json:"t"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Button  int     `json:"button,omitempty"`
	DeltaY  float64 `json:"deltaY,omitempty"`
	Key     string  `json:"key,omitempty"`
	Ctrl    bool    `json:"ctrl,omitempty"`
	Meta    bool    `json:"meta,omitempty"`
	Alt     bool    `json:"alt,omitempty"`
	Shift   bool    `json:"shift,omitempty"`
	W       int     `json:"w,omitempty"`
	H       int     `json:"h,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// KeyEvent extracts the key press carried by a "key" message.
func (m Message) KeyEvent() KeyEvent {
	return KeyEvent{Key: m.Key, Ctrl: m.Ctrl, Meta: m.Meta, Alt: m.Alt, Shift: m.Shift}
}

// Feedback is sent back to the page so it can draw the surrogate screen.
type Feedback struct {
	T         string             `json:"t"`
	Viewport  *geometry.Viewport `json:"viewport,omitempty"`
	Connected *bool              `json:"connected,omitempty"`
	Tracking  *bool              `json:"tracking,omitempty"`
	Remote    *geometry.Point    `json:"remote,omitempty"`
	X         float64            `json:"x,omitempty"`
	Y         float64            `json:"y,omitempty"`
	FromX     float64            `json:"fromX,omitempty"`
	FromY     float64            `json:"fromY,omitempty"`
	InUsable  bool               `json:"inUsable,omitempty"`
	Dragging  bool               `json:"dragging,omitempty"`
	Text      string             `json:"text,omitempty"`
	Level     string             `json:"level,omitempty"`
}

// Feedback kinds.
const (
	FeedbackState = "state"
	FeedbackHover = "hover"
	FeedbackLog   = "log"
)
