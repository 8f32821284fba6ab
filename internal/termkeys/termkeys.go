// Package termkeys turns raw terminal input into key events for the remote agent.
package termkeys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/Rixmerz/MultiComputer/internal/control"
)

// ExitKey (Ctrl+]) ends a relay session.
const ExitKey = 0x1d

const esc = 0x1b

var csiTilde = map[string]string{
	"1":  "Home",
	"2":  "Insert",
	"3":  "Delete",
	"4":  "End",
	"11": "F1",
	"12": "F2",
	"13": "F3",
	"14": "F4",
	"15": "F5",
	"17": "F6",
	"18": "F7",
	"19": "F8",
	"20": "F9",
	"21": "F10",
	"23": "F11",
	"24": "F12",
}

var csiFinal = map[byte]string{
	'A': "ArrowUp",
	'B': "ArrowDown",
	'C': "ArrowRight",
	'D': "ArrowLeft",
	'H': "Home",
	'F': "End",
}

var ss3Final = map[byte]string{
	'P': "F1",
	'Q': "F2",
	'R': "F3",
	'S': "F4",
	'A': "ArrowUp",
	'B': "ArrowDown",
	'C': "ArrowRight",
	'D': "ArrowLeft",
}

// Decode converts a chunk of raw terminal bytes into key events.
func Decode(b []byte) []control.KeyEvent {
	var out []control.KeyEvent
	for len(b) > 0 {
		ev, n := decodeOne(b)
		if n <= 0 {
			n = 1
		}
		if ev.Key != "" {
			out = append(out, ev)
		}
		b = b[n:]
	}
	return out
}

// decodeOne decodes the first key in b and returns the bytes consumed.
func decodeOne(b []byte) (control.KeyEvent, int) {
	c := b[0]
	switch {
	case c == esc:
		return decodeEscape(b)
	case c == '\r' || c == '\n':
		return control.KeyEvent{Key: "Enter"}, 1
	case c == '\t':
		return control.KeyEvent{Key: "Tab"}, 1
	case c == 0x7f || c == 0x08:
		return control.KeyEvent{Key: "Backspace"}, 1
	case c >= 0x01 && c <= 0x1a:
		return control.KeyEvent{Key: string(rune('a' + c - 1)), Ctrl: true}, 1
	case c < 0x20:
		return control.KeyEvent{}, 1
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError {
		return control.KeyEvent{}, size
	}
	return control.KeyEvent{Key: string(r)}, size
}

// decodeEscape decodes a lone Escape, an Alt-prefixed key, or a CSI/SS3 sequence.
func decodeEscape(b []byte) (control.KeyEvent, int) {
	if len(b) == 1 {
		return control.KeyEvent{Key: "Escape"}, 1
	}
	switch b[1] {
	case '[':
		return decodeCSI(b)
	case 'O':
		if len(b) < 3 {
			return control.KeyEvent{Key: "Escape"}, 1
		}
		return control.KeyEvent{Key: ss3Final[b[2]]}, 3
	case esc:
		return control.KeyEvent{Key: "Escape"}, 1
	}
	ev, n := decodeOne(b[1:])
	if ev.Key == "" {
		return control.KeyEvent{Key: "Escape"}, 1
	}
	ev.Alt = true
	return ev, n + 1
}

// decodeCSI decodes ESC [ params final.
func decodeCSI(b []byte) (control.KeyEvent, int) {
	i := 2
	for i < len(b) && (b[i] < 0x40 || b[i] > 0x7e) {
		i++
	}
	if i >= len(b) {
		return control.KeyEvent{}, len(b)
	}
	params, final := b[2:i], b[i]
	if final == '~' {
		if p := bytes.IndexByte(params, ';'); p >= 0 {
			params = params[:p]
		}
		return control.KeyEvent{Key: csiTilde[string(params)]}, i + 1
	}
	return control.KeyEvent{Key: csiFinal[final]}, i + 1
}

// Relay puts f into raw mode and forwards decoded keys to fn until Ctrl+], EOF or ctx ends.
func Relay(ctx context.Context, f *os.File, fn func(control.KeyEvent)) error {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("keyboard relay requires an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	return relayFrom(ctx, f, fn)
}

type chunk struct {
	b   []byte
	err error
}

// relayFrom reads r until the exit key, EOF or ctx ends.
func relayFrom(ctx context.Context, r io.Reader, fn func(control.KeyEvent)) error {
	reads := make(chan chunk)
	done := make(chan struct{})
	defer close(done)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			c := chunk{b: append([]byte(nil), buf[:n]...), err: err}
			select {
			case reads <- c:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-reads:
			data := c.b
			stop := false
			if i := bytes.IndexByte(data, ExitKey); i >= 0 {
				data, stop = data[:i], true
			}
			for _, ev := range Decode(data) {
				fn(ev)
			}
			if stop {
				return nil
			}
			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					return nil
				}
				return c.err
			}
		}
	}
}
