package termkeys

import (
	"context"
	"strings"
	"testing"

	"github.com/Rixmerz/MultiComputer/internal/control"
)

// keys returns the decoded key names.
func keys(evs []control.KeyEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Key)
	}
	return out
}

// TestDecode_PlainAndControl verifies printable runes and control bytes.
func TestDecode_PlainAndControl(t *testing.T) {
	evs := Decode([]byte("añ\r\t\x7f "))
	got := strings.Join(keys(evs), ",")
	if got != "a,ñ,Enter,Tab,Backspace, " {
		t.Fatalf("unexpected keys: %q", got)
	}

	evs = Decode([]byte{0x03})
	if len(evs) != 1 || evs[0].Key != "c" || !evs[0].Ctrl {
		t.Fatalf("expected ctrl+c, got %+v", evs)
	}
}

// TestDecode_EscapeSequences verifies arrows, delete and function keys.
func TestDecode_EscapeSequences(t *testing.T) {
	cases := map[string]string{
		"\x1b[A":   "ArrowUp",
		"\x1b[D":   "ArrowLeft",
		"\x1bOB":   "ArrowDown",
		"\x1b[3~":  "Delete",
		"\x1bOP":   "F1",
		"\x1b[15~": "F5",
		"\x1b[24~": "F12",
		"\x1b":     "Escape",
	}
	for in, want := range cases {
		evs := Decode([]byte(in))
		if len(evs) != 1 || evs[0].Key != want {
			t.Fatalf("%q: expected %s, got %+v", in, want, evs)
		}
	}
}

// TestDecode_AltPrefix verifies ESC followed by a key sets Alt.
func TestDecode_AltPrefix(t *testing.T) {
	evs := Decode([]byte("\x1bx"))
	if len(evs) != 1 || evs[0].Key != "x" || !evs[0].Alt {
		t.Fatalf("expected alt+x, got %+v", evs)
	}
}

// TestDecode_UnknownSequenceSkipped verifies unmapped CSI sequences produce nothing.
func TestDecode_UnknownSequenceSkipped(t *testing.T) {
	evs := Decode([]byte("\x1b[99~b"))
	if got := strings.Join(keys(evs), ","); got != "b" {
		t.Fatalf("expected only b, got %q", got)
	}
}

// TestRelayFrom_StopsAtExitKey verifies keys before Ctrl+] are forwarded and the rest dropped.
func TestRelayFrom_StopsAtExitKey(t *testing.T) {
	var got []string
	err := relayFrom(context.Background(), strings.NewReader("hi\x1dafter"), func(ev control.KeyEvent) {
		got = append(got, ev.Key)
	})
	if err != nil {
		t.Fatalf("relayFrom failed: %v", err)
	}
	if strings.Join(got, "") != "hi" {
		t.Fatalf("expected hi, got %v", got)
	}
}

// TestRelayFrom_EOF verifies end of input ends the relay cleanly.
func TestRelayFrom_EOF(t *testing.T) {
	var got []string
	err := relayFrom(context.Background(), strings.NewReader("ok"), func(ev control.KeyEvent) {
		got = append(got, ev.Key)
	})
	if err != nil {
		t.Fatalf("relayFrom failed: %v", err)
	}
	if strings.Join(got, "") != "ok" {
		t.Fatalf("expected ok, got %v", got)
	}
}
