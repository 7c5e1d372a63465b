package live

import (
	"sync"
	"time"
)

// eventTimer holds at most one armed timer. Schedule replaces any armed
// instance, Cancel is safe to call repeatedly and after firing, and the
// slot empties itself when the callback runs.
type eventTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (t *eventTimer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.timer == tm {
			t.timer = nil
		}
		t.mu.Unlock()
		fn()
	})
	t.timer = tm
}

// Cancel disarms the pending timer if any. Reports whether a fire was
// actually prevented.
func (t *eventTimer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return false
	}
	stopped := t.timer.Stop()
	t.timer = nil
	return stopped
}

func (t *eventTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
