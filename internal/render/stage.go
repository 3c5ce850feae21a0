package render

import (
	"time"

	"ribbons/internal/engine"
	"ribbons/internal/feeling"
	"ribbons/internal/particle"
)

const (
	maxDt         = 0.1
	sparksOnEnter = 14
)

// Step is what a backend draws for one frame.
type Step struct {
	Settings Settings
	Plan     engine.Plan
	Dt       float64 // seconds, clamped
	FPS      float64
	Limit    int
}

// Stage owns the per-renderer working state: the derived cache, the
// particle pool, admission control and the frame-rate cap. It is created
// and destroyed with its backend.
type Stage struct {
	live      *Live
	ctrl      *engine.Controller
	particles *particle.System
	admission *Admission
	throttle  Throttle
	hardCap   int
	last      time.Time
}

// NewStage builds a stage. adaptive enables admission control; hardCap
// bounds the ribbon count regardless of settings.
func NewStage(live *Live, hardCap int, adaptive bool, seed uint64) *Stage {
	s := &Stage{
		live:      live,
		ctrl:      engine.NewController(),
		particles: particle.New(particle.MaxParticles, seed),
		hardCap:   min(max(hardCap, 1), HardCap),
	}
	if adaptive {
		s.admission = NewAdmission(min(live.Load().MaxRibbons, s.hardCap))
	}
	return s
}

func (s *Stage) Particles() *particle.System { return s.particles }

func (s *Stage) Controller() *engine.Controller { return s.ctrl }

// Admission returns nil when the stage is not adaptive.
func (s *Stage) Admission() *Admission { return s.admission }

// Advance runs the controller and particles for now. It returns false when
// the frame-rate cap says to skip this callback.
func (s *Stage) Advance(now time.Time, feelings []feeling.Feeling) (Step, bool) {
	set := s.live.Load()
	if !s.throttle.Ready(now, set.EffectiveFPS()) {
		return Step{}, false
	}

	var dt, fps float64
	if !s.last.IsZero() {
		dt = now.Sub(s.last).Seconds()
		if dt > 0 {
			fps = 1 / dt
		}
	}
	s.last = now
	dt = clampDt(dt)

	limit := min(set.MaxRibbons, s.hardCap)
	if s.admission != nil {
		s.admission.SetMax(limit)
		s.admission.SetTarget(set.EffectiveFPS())
		if fps > 0 {
			s.admission.Observe(float64(now.UnixMilli()), fps)
		}
		limit = s.admission.Allowed()
	}

	plan := s.ctrl.Plan(now, feelings, limit)

	s.particles.Update(dt)
	if !set.ReducedMotion {
		for _, r := range plan.Ribbons {
			s.particles.SpawnTrail(r, dt)
		}
		for _, id := range plan.Entered {
			for _, r := range plan.Ribbons {
				if r.ID == id {
					s.particles.SpawnSparks(r, sparksOnEnter)
					break
				}
			}
		}
	}
	s.particles.Maintain(set.ParticleTarget, particle.AmbientTint)

	return Step{Settings: set, Plan: plan, Dt: dt, FPS: fps, Limit: limit}, true
}

// Stats fills the shared fields of a FrameStats from st.
func (s *Stage) Stats(st Step) FrameStats {
	return FrameStats{
		Plan:      st.Plan.Stats,
		Particles: s.particles.Len(),
		Allowed:   st.Limit,
		FPS:       st.FPS,
		Entered:   st.Plan.Entered,
	}
}

func clampDt(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	if dt > maxDt {
		return maxDt
	}
	return dt
}
