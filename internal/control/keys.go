package control

import (
	"fmt"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyEvent is one key press with its modifier state, using DOM key names.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`
}

// Modifier names the platform's primary shortcut modifier.
type Modifier string

const (
	// ModCtrl is the Control key.
	ModCtrl Modifier = "ctrl"
	// ModMeta is the Command key.
	ModMeta Modifier = "meta"
)

// PrimaryModifierFor returns the shortcut modifier for a GOOS value.
func PrimaryModifierFor(goos string) Modifier {
	if goos == "darwin" {
		return ModMeta
	}
	return ModCtrl
}

// ParseModifier resolves "auto", "ctrl" or "meta". Auto follows the host OS.
func ParseModifier(s string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PrimaryModifierFor(runtime.GOOS), nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "meta", "cmd", "command":
		return ModMeta, nil
	default:
		return "", fmt.Errorf("unknown modifier %q", s)
	}
}

var shortcutKeys = map[string]string{
	"a": "select_all",
	"c": "copy",
	"v": "paste",
	"x": "cut",
	"z": "undo",
	"y": "redo",
	"s": "save",
	"f": "find",
	"n": "new",
	"o": "open",
	"p": "print",
	"r": "refresh",
}

var specialKeys = map[string]string{
	"Backspace":  "backspace",
	"Enter":      "enter",
	"Tab":        "tab",
	"Escape":     "escape",
	"Delete":     "delete",
	" ":          "space",
	"ArrowUp":    "arrow_up",
	"ArrowDown":  "arrow_down",
	"ArrowLeft":  "arrow_left",
	"ArrowRight": "arrow_right",
}

// held reports whether the primary modifier is pressed.
func (m Modifier) held(ev KeyEvent) bool {
	if m == ModMeta {
		return ev.Meta
	}
	return ev.Ctrl
}

// ClassifyKey maps a key press to a shortcut, special key or character action.
// The second result is false when the key must not be forwarded.
func ClassifyKey(connected bool, ev KeyEvent, primary Modifier) (Action, bool) {
	if !connected {
		return Action{}, false
	}

	if primary.held(ev) && !ev.Alt && !ev.Shift {
		if id, ok := shortcutKeys[strings.ToLower(ev.Key)]; ok {
			return Action{Type: ActShortcut, Key: id}, true
		}
	}
	if ev.Ctrl || ev.Meta || ev.Alt {
		return Action{}, false
	}
	if isFunctionKey(ev.Key) {
		return Action{}, false
	}
	if name, ok := specialKeys[ev.Key]; ok {
		return Action{Type: ActSpecialKey, Key: name}, true
	}
	if utf8.RuneCountInString(ev.Key) == 1 {
		r, _ := utf8.DecodeRuneInString(ev.Key)
		if r != utf8.RuneError && unicode.IsPrint(r) {
			return Action{Type: ActCharacter, Text: ev.Key}, true
		}
	}
	return Action{}, false
}

// isFunctionKey reports whether key is F1 through F12.
func isFunctionKey(key string) bool {
	if len(key) < 2 || len(key) > 3 || key[0] != 'F' {
		return false
	}
	n := 0
	for _, c := range key[1:] {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n >= 1 && n <= 12
}
