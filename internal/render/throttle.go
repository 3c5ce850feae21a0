package render

import "time"

// Throttle implements a soft frame-rate cap by telling the caller to skip
// work until the target interval has elapsed.
type Throttle struct {
	last time.Time
}

// Ready reports whether a frame should run at now for the given rate and
// records it if so. A tenth of the interval is tolerated so a display
// refreshing at exactly the target rate is not halved.
func (t *Throttle) Ready(now time.Time, fps int) bool {
	if fps <= 0 || t.last.IsZero() {
		t.last = now
		return true
	}
	interval := time.Second / time.Duration(fps)
	if now.Sub(t.last) < interval-interval/10 {
		return false
	}
	t.last = now
	return true
}
