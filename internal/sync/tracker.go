package sync

import (
	"errors"
	stdsync "sync"
)

// ErrActionInFlight is returned when an action is requested for an
// appointment whose previous action has not resolved yet. The triggering
// control stays disabled until then.
var ErrActionInFlight = errors.New("sync: action already in flight")

// tracker guards state-changing requests so each control is mutually
// exclusive with itself. Different keys may be in flight concurrently since
// each targets a distinct appointment.
type tracker struct {
	mu       stdsync.Mutex
	inFlight map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{inFlight: make(map[string]struct{})}
}

// begin marks a key in flight. It reports false when the key already is.
func (t *tracker) begin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inFlight[key]; busy {
		return false
	}
	t.inFlight[key] = struct{}{}
	return true
}

// end re-enables the key. Safe to call for keys that are not in flight.
func (t *tracker) end(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, key)
}

// busy reports whether a key is currently in flight.
func (t *tracker) busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, b := t.inFlight[key]
	return b
}
