package control

import (
	"log"
	"sync/atomic"
)

// debugInput controls whether per-event classification logs are emitted.
var debugInput atomic.Bool

// SetDebugLogging enables/disables verbose input and dispatch logs.
func SetDebugLogging(enabled bool) {
	debugInput.Store(enabled)
}

// debugEnabled reports whether verbose logs are enabled.
func debugEnabled() bool {
	return debugInput.Load()
}

// debugf logs only when debug logging is enabled.
func debugf(format string, args ...any) {
	if debugEnabled() {
		log.Printf(format, args...)
	}
}
