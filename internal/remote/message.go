package remote

// Agent endpoints.
const (
	PathPing     = "/ping"
	PathScreen   = "/screen"
	PathStatus   = "/status"
	PathType     = "/type"
	PathSpecial  = "/special"
	PathShortcut = "/shortcut"
	PathMouse    = "/mouse"
)

// Mouse actions understood by the agent.
const (
	MouseMove      = "move"
	MouseClick     = "click"
	MouseDrag      = "drag"
	MouseDragStart = "drag_start"
	MouseDragMove  = "drag_move"
	MouseDragEnd   = "drag_end"
	MouseScroll    = "scroll"
)

// Message is one outbound request: a JSON body posted to an agent endpoint.
type Message struct {
	Endpoint string
	Body     any
}

// TextPayload types a single character.
type TextPayload struct {
	Text string `json:"text"`
}

// SpecialPayload presses a named key.
type SpecialPayload struct {
	Key string `json:"key"`
}

// ShortcutPayload triggers a named shortcut.
type ShortcutPayload struct {
	Shortcut string `json:"shortcut"`
}

// MousePayload drives the remote pointer.
type MousePayload struct {
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button,omitempty"`
	ToX    *int   `json:"to_x,omitempty"`
	ToY    *int   `json:"to_y,omitempty"`
	Amount *int   `json:"amount,omitempty"`
}

// TypeMessage builds a /type request.
func TypeMessage(text string) Message {
	return Message{Endpoint: PathType, Body: TextPayload{Text: text}}
}

// SpecialMessage builds a /special request.
func SpecialMessage(key string) Message {
	return Message{Endpoint: PathSpecial, Body: SpecialPayload{Key: key}}
}

// ShortcutMessage builds a /shortcut request.
func ShortcutMessage(id string) Message {
	return Message{Endpoint: PathShortcut, Body: ShortcutPayload{Shortcut: id}}
}

// MouseMessage builds a /mouse request.
func MouseMessage(p MousePayload) Message {
	return Message{Endpoint: PathMouse, Body: p}
}

// Move builds a pointer move.
func Move(x, y int) Message {
	return MouseMessage(MousePayload{Action: MouseMove, X: x, Y: y})
}

// Click builds a click with the given button.
func Click(x, y int, button string) Message {
	return MouseMessage(MousePayload{Action: MouseClick, X: x, Y: y, Button: button})
}

// Drag builds the single-request drag from (x, y) to (toX, toY).
func Drag(x, y, toX, toY int, button string) Message {
	return MouseMessage(MousePayload{Action: MouseDrag, X: x, Y: y, ToX: &toX, ToY: &toY, Button: button})
}

// DragStart presses button at (x, y).
func DragStart(x, y int, button string) Message {
	return MouseMessage(MousePayload{Action: MouseDragStart, X: x, Y: y, Button: button})
}

// DragMove moves the pressed pointer.
func DragMove(x, y int) Message {
	return MouseMessage(MousePayload{Action: MouseDragMove, X: x, Y: y})
}

// DragEnd releases button at (x, y).
func DragEnd(x, y int, button string) Message {
	return MouseMessage(MousePayload{Action: MouseDragEnd, X: x, Y: y, Button: button})
}

// Scroll scrolls by amount at (x, y).
func Scroll(x, y, amount int) Message {
	return MouseMessage(MousePayload{Action: MouseScroll, X: x, Y: y, Amount: &amount})
}
