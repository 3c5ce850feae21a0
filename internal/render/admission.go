package render

// Admission control constants.
const (
	FPSWindow       = 30
	CheckIntervalMs = 1000.0
	LowFPS          = 25.0
	RecoverFPS      = 45.0
	DropFactor      = 0.7
	RecoverStep     = 5
	MinAdmitted     = 10

	// A frame-rate cap below the fixed thresholds scales them down so a
	// deliberately slow cadence is not mistaken for overload.
	capLowShare     = 0.6
	capRecoverShare = 0.75
)

// Admission adapts the number of ribbons a CPU frame may draw to the
// observed frame rate: it cuts fast and recovers slowly.
type Admission struct {
	samples [FPSWindow]float64
	n, next int

	allowed int
	max     int
	target  float64

	lastCheck float64
	started   bool
}

// NewAdmission starts fully open at max.
func NewAdmission(limit int) *Admission {
	a := &Admission{target: DefaultFPS}
	a.SetMax(limit)
	a.allowed = a.max
	return a
}

// Allowed returns the current ribbon budget.
func (a *Admission) Allowed() int { return a.allowed }

// Max returns the user ceiling.
func (a *Admission) Max() int { return a.max }

// SetMax changes the user ceiling and re-clamps the budget.
func (a *Admission) SetMax(limit int) {
	a.max = max(limit, 1)
	a.allowed = a.clamp(a.allowed)
}

// SetTarget tells admission the frame rate the cap aims for.
func (a *Admission) SetTarget(fps int) {
	if fps > 0 {
		a.target = float64(fps)
	}
}

// Thresholds returns the average fps below which the budget drops and
// above which it recovers, for the current target.
func (a *Admission) Thresholds() (low, high float64) {
	return min(LowFPS, capLowShare*a.target), min(RecoverFPS, capRecoverShare*a.target)
}

func (a *Admission) floor() int { return min(MinAdmitted, a.max) }

func (a *Admission) clamp(v int) int {
	return min(max(v, a.floor()), a.max)
}

// Average is the mean of the recorded window, 0 when empty.
func (a *Admission) Average() float64 {
	if a.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < a.n; i++ {
		sum += a.samples[i]
	}
	return sum / float64(a.n)
}

// Observe records one fps sample at nowMs and, once per check interval,
// adjusts the budget. It reports whether the budget changed.
func (a *Admission) Observe(nowMs, fps float64) bool {
	a.samples[a.next] = fps
	a.next = (a.next + 1) % FPSWindow
	if a.n < FPSWindow {
		a.n++
	}
	if !a.started {
		a.started = true
		a.lastCheck = nowMs
		return false
	}
	if nowMs-a.lastCheck < CheckIntervalMs {
		return false
	}
	a.lastCheck = nowMs

	prev := a.allowed
	avg := a.Average()
	low, high := a.Thresholds()
	switch {
	case avg < low && a.allowed > a.floor():
		a.allowed = a.clamp(int(float64(a.allowed) * DropFactor))
	case avg > high && a.allowed < a.max:
		a.allowed = a.clamp(a.allowed + RecoverStep)
	}
	return a.allowed != prev
}
