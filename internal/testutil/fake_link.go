package testutil

import (
	"context"
	"sync"

	"github.com/Rixmerz/MultiComputer/internal/remote"
)

// FakeLink implements remote.Link and records sent messages for tests.
type FakeLink struct {
	mu       sync.Mutex
	messages []remote.Message
	err      error
}

// Ensure FakeLink implements the interface.
var _ remote.Link = (*FakeLink)(nil)

// Send records msg and returns the configured error.
func (f *FakeLink) Send(_ context.Context, msg remote.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

// SetErr makes every following Send fail with err.
func (f *FakeLink) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Sent returns a copy of the recorded messages.
func (f *FakeLink) Sent() []remote.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// Mouse returns the recorded /mouse payloads in order.
func (f *FakeLink) Mouse() []remote.MousePayload {
	var out []remote.MousePayload
	for _, m := range f.Sent() {
		if p, ok := m.Body.(remote.MousePayload); ok {
			out = append(out, p)
		}
	}
	return out
}
