package render

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/particle"
	"ribbons/internal/shape"
)

func TestAdmissionDropsOncePerInterval(t *testing.T) {
	a := NewAdmission(100)
	require.Equal(t, 100, a.Allowed())

	a.Observe(0, 20)
	prev := a.Allowed()
	for i := 1; i <= 150; i++ {
		now := float64(i * 100)
		changed := a.Observe(now, 20)
		if i%10 != 0 {
			assert.False(t, changed, "no change between checks at %v", now)
			assert.Equal(t, prev, a.Allowed())
			continue
		}
		want := max(int(float64(prev)*DropFactor), MinAdmitted)
		if prev == MinAdmitted {
			want = MinAdmitted
		}
		assert.Equal(t, want, a.Allowed(), "check at %v", now)
		assert.Equal(t, want != prev, changed)
		prev = a.Allowed()
	}
	assert.Equal(t, MinAdmitted, a.Allowed())
}

func TestAdmissionRecoversSlowly(t *testing.T) {
	a := NewAdmission(40)
	now := 0.0
	for a.Allowed() > MinAdmitted {
		now += 100
		a.Observe(now, 10)
	}
	require.Equal(t, MinAdmitted, a.Allowed())

	prev := a.Allowed()
	for range 400 {
		now += 100
		if a.Observe(now, 60) {
			assert.Equal(t, prev+RecoverStep, a.Allowed())
			prev = a.Allowed()
		}
		assert.LessOrEqual(t, a.Allowed(), 40)
	}
	assert.Equal(t, 40, a.Allowed())
}

func TestAdmissionHoldsInBand(t *testing.T) {
	a := NewAdmission(50)
	for i := range 100 {
		assert.False(t, a.Observe(float64(i*100), 35))
	}
	assert.Equal(t, 50, a.Allowed())
	assert.InDelta(t, 35, a.Average(), 1e-9)
}

func TestAdmissionThresholdsFollowTarget(t *testing.T) {
	a := NewAdmission(100)
	low, high := a.Thresholds()
	assert.Equal(t, LowFPS, low)
	assert.Equal(t, RecoverFPS, high)

	a.SetTarget(ReducedMotionFPS)
	low, high = a.Thresholds()
	assert.InDelta(t, 12, low, 1e-9)
	assert.InDelta(t, 15, high, 1e-9)
	for i := range 100 {
		a.Observe(float64(i*100), 20)
	}
	assert.Equal(t, 100, a.Allowed())

	a.SetTarget(0)
	low, _ = a.Thresholds()
	assert.InDelta(t, 12, low, 1e-9, "non-positive targets are ignored")
}

func TestAdmissionSetMaxClamps(t *testing.T) {
	a := NewAdmission(100)
	a.SetMax(30)
	assert.Equal(t, 30, a.Allowed())
	a.SetMax(4)
	assert.Equal(t, 4, a.Allowed(), "floor never exceeds the ceiling")
}

func TestThrottle(t *testing.T) {
	var th Throttle
	t0 := time.Unix(100, 0)
	assert.True(t, th.Ready(t0, 60))
	assert.False(t, th.Ready(t0.Add(10*time.Millisecond), 60))
	assert.True(t, th.Ready(t0.Add(16*time.Millisecond), 60))
	assert.False(t, th.Ready(t0.Add(21*time.Millisecond), 60))

	assert.False(t, th.Ready(t0.Add(50*time.Millisecond), 20))
	assert.True(t, th.Ready(t0.Add(70*time.Millisecond), 20))
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{MaxRibbons: 1e6, SplineSegments: 1, ParticleTarget: -3, Backend: "metal"}.Normalize()
	assert.Equal(t, HardCap, s.MaxRibbons)
	assert.Equal(t, MinSegments, s.SplineSegments)
	assert.Equal(t, 0, s.ParticleTarget)
	assert.Equal(t, DefaultFPS, s.TargetFPS)
	assert.Equal(t, PreferAuto, s.Backend)

	d := DefaultSettings()
	assert.Equal(t, d, d.Normalize())
	assert.Equal(t, DefaultFPS, d.EffectiveFPS())
	d.ReducedMotion = true
	assert.Equal(t, ReducedMotionFPS, d.EffectiveFPS())
}

func TestParsePreference(t *testing.T) {
	for in, want := range map[string]Preference{"": PreferAuto, "GPU": PreferGPU, " cpu ": PreferCPU, "auto": PreferAuto} {
		got, err := ParsePreference(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParsePreference("vulkan")
	assert.Error(t, err)
}

func TestLiveUpdate(t *testing.T) {
	l := NewLive(DefaultSettings())
	got := l.Update(func(s *Settings) { s.MaxRibbons = 12; s.Glow = false })
	assert.Equal(t, 12, got.MaxRibbons)
	assert.Equal(t, got, l.Load())

	l.Store(Settings{})
	assert.Equal(t, 1, l.Load().MaxRibbons)
}

func stageFeelings(n int, created time.Time) []feeling.Feeling {
	joy, _ := emotion.Lookup(emotion.Joy)
	fs := make([]feeling.Feeling, n)
	for i := range fs {
		id := fmt.Sprintf("s%03d", i)
		fs[i] = feeling.New(id, emotion.Joy, "", shape.Synthesize(joy, 0.5, id), created.Add(time.Duration(i)*time.Second))
	}
	return fs
}

func TestStageAdvance(t *testing.T) {
	set := DefaultSettings()
	set.MaxRibbons = 8
	live := NewLive(set)
	st := NewStage(live, HardCap, false, 1)
	require.Nil(t, st.Admission())

	t0 := time.Unix(1_700_000_000, 0)
	fs := stageFeelings(20, t0.Add(-time.Hour))

	step, ok := st.Advance(t0, fs)
	require.True(t, ok)
	assert.Equal(t, 8, step.Limit)
	assert.Empty(t, step.Plan.Ribbons)

	_, ok = st.Advance(t0.Add(time.Millisecond), fs)
	assert.False(t, ok, "throttled")

	var last Step
	for i := 1; i <= 300; i++ {
		last, ok = st.Advance(t0.Add(time.Duration(i)*50*time.Millisecond), fs)
		require.True(t, ok)
	}
	assert.Len(t, last.Plan.Ribbons, 8)
	assert.InDelta(t, 20, last.FPS, 1e-6)
	assert.InDelta(t, 0.05, last.Dt, 1e-9)
	assert.Positive(t, st.Particles().Count(particle.Trail))
	assert.Equal(t, set.ParticleTarget, st.Particles().Count(particle.Ambient))

	fst := st.Stats(last)
	assert.Equal(t, 8, fst.Plan.Admitted)
	assert.Equal(t, st.Particles().Len(), fst.Particles)
}

func TestStageAdaptiveUsesAdmission(t *testing.T) {
	live := NewLive(DefaultSettings())
	st := NewStage(live, 200, true, 1)
	require.NotNil(t, st.Admission())
	assert.Equal(t, 200, st.Admission().Max())

	t0 := time.Unix(1_700_000_000, 0)
	step, ok := st.Advance(t0, nil)
	require.True(t, ok)
	assert.Equal(t, 200, step.Limit)

	// 10 fps for several seconds forces cuts.
	for i := 1; i <= 40; i++ {
		step, ok = st.Advance(t0.Add(time.Duration(i)*100*time.Millisecond), nil)
		require.True(t, ok)
	}
	assert.Less(t, step.Limit, 200)
	assert.Equal(t, st.Admission().Allowed(), step.Limit)
}

func TestStageCappedRateKeepsBudget(t *testing.T) {
	for name, mut := range map[string]func(*Settings){
		"reduced motion": func(s *Settings) { s.ReducedMotion = true },
		"target 15":      func(s *Settings) { s.TargetFPS = 15 },
		"target 25":      func(s *Settings) { s.TargetFPS = 25 },
	} {
		t.Run(name, func(t *testing.T) {
			set := DefaultSettings()
			mut(&set)
			st := NewStage(NewLive(set), HardCap, true, 1)
			t0 := time.Unix(1_700_000_000, 0)
			fs := stageFeelings(300, t0.Add(-time.Hour))

			// A 60 Hz display for 20 seconds.
			var last Step
			frames := 0
			for i := range 1200 {
				step, ok := st.Advance(t0.Add(time.Duration(i)*time.Second/60), fs)
				if ok {
					last = step
					frames++
				}
			}
			assert.Less(t, frames, 600)
			assert.Equal(t, DefaultMaxRibbons, last.Limit)
			assert.Equal(t, DefaultMaxRibbons, st.Admission().Allowed())
		})
	}
}

func TestStageSteppedClockWithoutAdmission(t *testing.T) {
	st := NewStage(NewLive(DefaultSettings()), HardCap, false, 1)
	t0 := time.Unix(1_700_000_000, 0)
	fs := stageFeelings(300, t0.Add(-time.Hour))
	var last Step
	for i := range 49 {
		step, ok := st.Advance(t0.Add(time.Duration(i)*250*time.Millisecond), fs)
		require.True(t, ok)
		last = step
	}
	assert.InDelta(t, 4, last.FPS, 1e-9)
	assert.Equal(t, DefaultMaxRibbons, last.Limit)
	assert.Zero(t, last.Plan.Stats.Dropped)
}

func TestStageReducedMotionSkipsTrails(t *testing.T) {
	set := DefaultSettings()
	set.ReducedMotion = true
	st := NewStage(NewLive(set), HardCap, false, 1)
	t0 := time.Unix(1_700_000_000, 0)
	fs := stageFeelings(5, t0.Add(-time.Hour))
	for i := range 200 {
		st.Advance(t0.Add(time.Duration(i)*60*time.Millisecond), fs)
	}
	assert.Equal(t, 0, st.Particles().Count(particle.Trail))
	assert.Equal(t, 0, st.Particles().Count(particle.Spark))
}
