package engine

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/shape"
	"ribbons/internal/vitality"
)

var epoch = time.Unix(1_700_000_000, 0)

func mkFeeling(id, emo string, created time.Time) feeling.Feeling {
	p, err := emotion.Lookup(emo)
	if err != nil {
		p = emotion.All()[0]
	}
	return feeling.New(id, emo, "", shape.Synthesize(p, 0.5, id), created)
}

func TestStaggerDelay(t *testing.T) {
	assert.Equal(t, 0.0, StaggerDelay(0, 10))
	assert.Equal(t, 0.0, StaggerDelay(3, 1))
	assert.Equal(t, 3*StaggerStepMs, StaggerDelay(3, 10))
	assert.Equal(t, StaggerMaxMs, StaggerDelay(100000, 200000))
}

func TestFreshFeelingsStaggerIn(t *testing.T) {
	var fs []feeling.Feeling
	for i := range 10 {
		fs = append(fs, mkFeeling(fmt.Sprintf("f%d", i), emotion.Joy, epoch.Add(time.Duration(i)*time.Millisecond)))
	}
	c := NewController()

	now0 := epoch.Add(10 * time.Millisecond)
	first := c.Plan(now0, fs, 0)
	assert.Empty(t, first.Ribbons, "nothing is visible on first sight")
	assert.Equal(t, 10, first.Stats.Candidates)

	plan := c.Plan(now0.Add(300*time.Millisecond), fs, 0)
	assert.Equal(t, 5, plan.Stats.Admitted)
	assert.Equal(t, 1, plan.Stats.Faded)
	assert.Equal(t, 4, plan.Stats.Pending)
	require.Len(t, plan.Ribbons, 5)

	// Oldest first; the newest has been on stage longest.
	assert.Equal(t, "f5", plan.Ribbons[0].ID)
	assert.Equal(t, "f9", plan.Ribbons[4].ID)
	for i := 1; i < len(plan.Ribbons); i++ {
		assert.Greater(t, plan.Ribbons[i].Alpha, plan.Ribbons[i-1].Alpha)
	}
	assert.Len(t, plan.Entered, 5)

	again := c.Plan(now0.Add(300*time.Millisecond), fs, 0)
	assert.Empty(t, again.Entered)
}

func TestMidLifeRibbonVisible(t *testing.T) {
	created := epoch.Add(-24 * time.Hour)
	fs := []feeling.Feeling{mkFeeling("mid", emotion.Calm, created)}
	c := NewController()
	c.Plan(epoch, fs, 0)

	now := epoch.Add(5 * time.Second)
	plan := c.Plan(now, fs, 0)
	require.Len(t, plan.Ribbons, 1)
	r := plan.Ribbons[0]

	ageMs := float64(now.Sub(created) / time.Millisecond)
	v := vitality.Vitality(ageMs, float64(feeling.Lifespan/time.Millisecond))
	assert.InDelta(t, v, r.Vitality, 1e-6)
	assert.InDelta(t, v, r.Alpha, 1e-6)
	assert.GreaterOrEqual(t, r.WaveOffset, 0.0)
	assert.Less(t, r.WaveOffset, 1.0)
	assert.Len(t, r.Path, feeling.PathSamples)
	assert.True(t, OnScreen(r.HeadX, r.Length))
}

func TestEndOfLifeNotDrawn(t *testing.T) {
	fs := []feeling.Feeling{
		mkFeeling("old", emotion.Sadness, epoch.Add(-feeling.Lifespan)),
		mkFeeling("older", emotion.Anger, epoch.Add(-feeling.Lifespan-time.Hour)),
	}
	c := NewController()
	c.Plan(epoch.Add(-time.Minute), fs, 0)
	plan := c.Plan(epoch, fs, 0)
	assert.Empty(t, plan.Ribbons)
	assert.Equal(t, 2, plan.Stats.Faded)
}

func TestInvalidFeelingsSkipped(t *testing.T) {
	good := mkFeeling("good", emotion.Love, epoch.Add(-time.Hour))
	unknown := mkFeeling("unknown", emotion.Love, epoch.Add(-time.Hour))
	unknown.EmotionID = "ennui"
	short := mkFeeling("short", emotion.Love, epoch.Add(-time.Hour))
	short.Path = short.Path[:1]
	nan := mkFeeling("nan", emotion.Love, epoch.Add(-time.Hour))
	for i := range nan.Path {
		nan.Path[i].Y = math.NaN()
	}

	fs := []feeling.Feeling{good, unknown, short, nan}
	c := NewController()
	c.Plan(epoch, fs, 0)
	plan := c.Plan(epoch.Add(10*time.Second), fs, 0)
	assert.Equal(t, 3, plan.Stats.Invalid)
	require.Len(t, plan.Ribbons, 1)
	assert.Equal(t, "good", plan.Ribbons[0].ID)
}

func TestLimitKeepsNewest(t *testing.T) {
	var fs []feeling.Feeling
	for i := range 20 {
		fs = append(fs, mkFeeling(fmt.Sprintf("r%02d", i), emotion.Hope, epoch.Add(-time.Duration(20-i)*time.Minute)))
	}
	c := NewController()
	c.Plan(epoch, fs, 5)
	plan := c.Plan(epoch.Add(15*time.Second), fs, 5)

	require.Len(t, plan.Ribbons, 5)
	assert.Equal(t, 15, plan.Stats.Dropped)
	assert.Equal(t, 5, plan.Stats.Admitted)
	for i, r := range plan.Ribbons {
		assert.Equal(t, fmt.Sprintf("r%02d", 15+i), r.ID)
	}
}

func TestDroppedRibbonEntersWhenAdmitted(t *testing.T) {
	var fs []feeling.Feeling
	for i := range 20 {
		fs = append(fs, mkFeeling(fmt.Sprintf("r%02d", i), emotion.Hope, epoch.Add(-time.Duration(20-i)*time.Minute)))
	}
	c := NewController()
	c.Plan(epoch, fs, 5)
	plan := c.Plan(epoch.Add(15*time.Second), fs, 5)
	assert.Equal(t, []string{"r15", "r16", "r17", "r18", "r19"}, plan.Entered)

	plan = c.Plan(epoch.Add(16*time.Second), fs, 20)
	require.Len(t, plan.Ribbons, 20)
	require.Len(t, plan.Entered, 15)
	assert.Equal(t, "r00", plan.Entered[0])
	assert.Equal(t, "r14", plan.Entered[14])
}

func TestHeadLoopsContinuously(t *testing.T) {
	const length = 0.3
	assert.InDelta(t, 1.0, HeadX(0, length), 1e-12)
	for _, travel := range []float64{0.01, 0.5, 1.2, 17.77} {
		a := HeadX(travel, length)
		b := HeadX(travel+1+length, length)
		assert.InDelta(t, a, b, 1e-9, "travel %v", travel)
		assert.True(t, OnScreen(a, length))
	}
	// Moving right to left within one cycle.
	assert.Less(t, HeadX(0.4, length), HeadX(0.2, length))
}

func TestOnScreen(t *testing.T) {
	assert.True(t, OnScreen(0.5, 0.2))
	assert.True(t, OnScreen(-0.2, 0.2))
	assert.False(t, OnScreen(-0.5, 0.2))
	assert.False(t, OnScreen(1.2, 0.2))
}

func TestWaveOffsetNormalized(t *testing.T) {
	assert.InDelta(t, 0.5, WaveOffset(1.5, 1), 1e-12)
	assert.Equal(t, 0.0, WaveOffset(3, 0))
	w := WaveOffset(24000, 0.13)
	assert.GreaterOrEqual(t, w, 0.0)
	assert.Less(t, w, 1.0)
}

func TestDeriveStable(t *testing.T) {
	p, _ := emotion.Lookup(emotion.Awe)
	f := mkFeeling("stable", emotion.Awe, epoch)
	a := Derive(f, p)
	b := Derive(f, p)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a.Base.Length, MinBaseLength)
	assert.Less(t, a.Base.Length, MaxBaseLength)
	assert.GreaterOrEqual(t, a.Base.Thickness, MinBaseThickness)
	assert.Less(t, a.Base.Thickness, MaxBaseThickness)

	f.Color = "#102030"
	c := Derive(f, p)
	assert.NotEqual(t, a.Color, c.Color)
}

func TestCacheKeepsFirstSeenAcrossPathChange(t *testing.T) {
	fs := []feeling.Feeling{mkFeeling("upd", emotion.Joy, epoch.Add(-time.Hour))}
	c := NewController()
	c.Plan(epoch, fs, 0)
	require.Equal(t, 1, c.Cached())

	joy, _ := emotion.Lookup(emotion.Joy)
	fs[0].Path = shape.Synthesize(joy, 0.3, "other")
	plan := c.Plan(epoch.Add(4*time.Second), fs, 0)
	require.Len(t, plan.Ribbons, 1)
	assert.InDelta(t, plan.Ribbons[0].Vitality, plan.Ribbons[0].Alpha, 1e-9, "fade-in not restarted")

	c.Prune(nil)
	assert.Equal(t, 0, c.Cached())
}

func TestTaper(t *testing.T) {
	assert.InDelta(t, TailWidth, Taper(0), 1e-12)
	assert.InDelta(t, 1.0, Taper(1), 1e-12)
	assert.Less(t, Taper(0.3), Taper(0.6))
}

func TestBodyGeometry(t *testing.T) {
	r := RibbonFrame{
		HeadX:      0.4,
		Length:     0.3,
		Thickness:  0.02,
		WaveOffset: 0.25,
		Path:       []float64{0.08, 0.92, 0.08, 0.92, 0.5},
	}
	const w, h = 800.0, 600.0
	pts := Body(r, 24, w, h, nil)
	require.Len(t, pts, 25)

	assert.InDelta(t, (r.HeadX+r.Length)*w, pts[0].X, 1e-9)
	assert.InDelta(t, r.HeadX*w, pts[24].X, 1e-9)
	assert.InDelta(t, 0.5*r.Thickness*h, pts[24].HalfWidth, 1e-9)
	assert.InDelta(t, pts[0].Y, pts[24].Y, 1e-9, "the body spans one full loop")

	for _, p := range pts {
		assert.InDelta(t, 1.0, math.Hypot(p.NX, p.NY), 1e-9)
		// Slope clamp keeps the normal from lying flat.
		assert.Greater(t, math.Abs(p.NY), 0.2)
	}

	head := HeadPoint(r, w, h)
	assert.Equal(t, pts[24], head)
}

func TestSampleYMatchesPath(t *testing.T) {
	path := []float64{0.2, 0.4, 0.6, 0.8}
	y, _ := SampleY(path, 0, 0.5)
	assert.InDelta(t, 0.6, y, 1e-12)
	y, _ = SampleY(path, 0.25, 0.25)
	assert.InDelta(t, 0.6, y, 1e-12)
}
