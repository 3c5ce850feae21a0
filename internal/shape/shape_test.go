package shape

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
)

func TestHash32MatchesRollingHash(t *testing.T) {
	assert.Equal(t, uint32(96354), Hash32("abc"))
	assert.Equal(t, uint32(0), Hash32(""))
	// Wraps like a signed 32-bit accumulator.
	long := "the quick brown fox jumps over the lazy dog"
	var h int32
	for _, c := range []byte(long) {
		h = 31*h + int32(c)
	}
	assert.Equal(t, uint32(h), Hash32(long))
}

func TestSeededStreamInUnitInterval(t *testing.T) {
	r := NewSeeded("stream")
	for range 10000 {
		v := r.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeededIntRangeInclusive(t *testing.T) {
	r := NewSeeded("ints")
	seen := map[int]bool{}
	for range 2000 {
		v := r.IntRange(3, 4)
		require.True(t, v == 3 || v == 4, "got %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, 2)
}

func TestSynthesizeDeterministic(t *testing.T) {
	for _, p := range emotion.All() {
		for i := range 20 {
			seed := fmt.Sprintf("%s-%d", p.ID, i)
			a := Synthesize(p, 0.5, seed)
			b := Synthesize(p, 0.5, seed)
			require.Equal(t, a, b, "profile %s seed %s", p.ID, seed)
		}
	}
}

func TestSynthesizeShapeInvariants(t *testing.T) {
	for _, p := range emotion.All() {
		for _, startY := range []float64{0, 0.1, 0.5, 0.9, 1} {
			pts := Synthesize(p, startY, "invariants-"+p.ID)
			require.Len(t, pts, feeling.PathSamples)
			for i, pt := range pts {
				assert.Equal(t, float64(i)/feeling.PathSamples, pt.X)
				assert.GreaterOrEqual(t, pt.Y, feeling.MinY)
				assert.LessOrEqual(t, pt.Y, feeling.MaxY)
			}
		}
	}
}

func TestSynthesizeCalmScenario(t *testing.T) {
	calm, err := emotion.Lookup(emotion.Calm)
	require.NoError(t, err)

	pts := Synthesize(calm, 0.5, "abc")
	require.Len(t, pts, 32)

	ctrl := ControlPoints(calm, 0.5, "abc")
	require.GreaterOrEqual(t, len(ctrl), 3)
	require.LessOrEqual(t, len(ctrl), 4)

	// The 33rd sample sits at s == k, which wraps to the first.
	virtual, _ := EvalPeriodic(ctrl, float64(len(ctrl)))
	assert.InDelta(t, pts[0].Y, virtual, 1e-9)

	const overshoot = 0.1
	for _, pt := range pts {
		assert.GreaterOrEqual(t, pt.Y, 0.32-overshoot)
		assert.LessOrEqual(t, pt.Y, 0.68+overshoot)
	}
}

func TestPeriodicContinuityAtSeam(t *testing.T) {
	for _, p := range emotion.All() {
		ctrl := ControlPoints(p, 0.5, "seam-"+p.ID)
		k := float64(len(ctrl))
		y0, d0 := EvalPeriodic(ctrl, 0)
		yk, dk := EvalPeriodic(ctrl, k-1e-9)
		assert.InDelta(t, y0, yk, 1e-6, p.ID)
		assert.InDelta(t, d0, dk, 1e-6, p.ID)
	}
}

func TestEvalPeriodicWrapsNegative(t *testing.T) {
	ys := []float64{0.2, 0.6, 0.4, 0.8}
	a, _ := EvalPeriodic(ys, -0.5)
	b, _ := EvalPeriodic(ys, 3.5)
	assert.InDelta(t, a, b, 1e-12)
}

func TestEvalPeriodicInterpolatesControlPoints(t *testing.T) {
	ys := []float64{0.2, 0.6, 0.4, 0.8, 0.3}
	for i, want := range ys {
		got, _ := EvalPeriodic(ys, float64(i))
		assert.InDelta(t, want, got, 1e-12)
	}
}

func TestSlopeMatchesFiniteDifference(t *testing.T) {
	ys := []float64{0.2, 0.6, 0.4, 0.8, 0.3}
	const h = 1e-6
	for _, s := range []float64{0.1, 1.3, 2.7, 4.9} {
		y1, _ := EvalPeriodic(ys, s-h)
		y2, _ := EvalPeriodic(ys, s+h)
		_, dy := EvalPeriodic(ys, s)
		assert.InDelta(t, (y2-y1)/(2*h), dy, 1e-4)
	}
}

func TestZeroAmplitudeIsFlat(t *testing.T) {
	p := emotion.Profile{ID: "flat", ControlPoints: emotion.Range{Min: 3, Max: 5}}
	for _, pt := range Synthesize(p, 0.4, "flat") {
		assert.InDelta(t, 0.4, pt.Y, 1e-12)
	}
}

func TestRegenerate(t *testing.T) {
	f := feeling.Feeling{ID: "regen", EmotionID: emotion.Hope}
	out, err := Regenerate(f, 0.5)
	require.NoError(t, err)
	hope, _ := emotion.Lookup(emotion.Hope)
	assert.Equal(t, Synthesize(hope, 0.5, "regen"), out.Path)

	_, err = Regenerate(feeling.Feeling{ID: "x", EmotionID: "ennui"}, 0.5)
	assert.ErrorIs(t, err, emotion.ErrUnknownEmotion)
}

func TestStartYStable(t *testing.T) {
	a := StartY("seed")
	assert.Equal(t, a, StartY("seed"))
	assert.False(t, math.IsNaN(a))
	assert.GreaterOrEqual(t, a, 0.25)
	assert.Less(t, a, 0.75)
}
