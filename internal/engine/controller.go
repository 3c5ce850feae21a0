// Package engine turns the current list of feelings into backend-neutral
// per-ribbon frame records.
//
// Every tick the Controller walks the feelings oldest first, staggers their
// entry, ages them through the vitality curve, moves their heads across the
// screen and culls what cannot be seen. The stored path is never recomputed:
// motion along the body comes from sliding the read position (WaveOffset)
// through the fixed shape.
package engine

import (
	"math"
	"slices"
	"strings"
	"time"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/vitality"
)

const (
	// FlowSpeed is screen widths travelled per millisecond at speed factor 1.
	FlowSpeed = 0.00004

	// StaggerStepMs delays each older ribbon relative to the next newer one.
	StaggerStepMs = 60.0
	// StaggerMaxMs caps the entry delay.
	StaggerMaxMs = 8000.0

	// CullMargin inflates [0,1] so ribbons do not pop at the exact edge.
	CullMargin = 0.05

	// pruneEvery is how many plans run between cache sweeps.
	pruneEvery = 240
)

// RibbonFrame is the per-ribbon record every backend consumes.
type RibbonFrame struct {
	ID        string
	EmotionID string
	Color     emotion.RGB

	Alpha        float64
	Vitality     float64
	Thickness    float64 // fraction of screen height
	Length       float64 // fraction of screen width
	Glow         float64
	HeadX        float64 // fraction of screen width
	WaveOffset   float64 // [0,1)
	SpeedFactor  float64
	ParticleRate float64

	// Path is the stored vertical profile, shared with the cache.
	Path []float64
}

// Velocity returns the horizontal head velocity in screen widths per ms.
func (r RibbonFrame) Velocity() float64 {
	return -FlowSpeed * r.SpeedFactor
}

// Stats counts what happened to the candidates of one plan.
type Stats struct {
	Candidates int
	Pending    int // still inside their stagger delay
	Faded      int // alpha under the cull threshold
	OffScreen  int
	Invalid    int // unknown emotion or fewer than 2 samples
	Dropped    int // over the ribbon limit
	Admitted   int
}

// Plan is the output of one tick.
type Plan struct {
	Ribbons []RibbonFrame
	Stats   Stats
	// Entered lists ids that became visible for the first time this tick.
	Entered []string
}

// Controller owns the per-renderer derived cache. It is not safe for
// concurrent use; it lives on the frame thread.
type Controller struct {
	cache    *cache
	order    []int
	ribbons  []RibbonFrame
	entered  []string
	shown    map[string]bool
	gen      uint64
	lifespan float64
}

// NewController returns a controller using feeling.Lifespan.
func NewController() *Controller {
	return &Controller{
		cache:    newCache(),
		shown:    make(map[string]bool),
		lifespan: float64(feeling.Lifespan / time.Millisecond),
	}
}

// Cached returns the number of derived entries held.
func (c *Controller) Cached() int { return c.cache.len() }

// Reset drops every cached entry.
func (c *Controller) Reset() {
	c.cache = newCache()
	c.shown = make(map[string]bool)
}

// Plan computes the visible ribbons at now. limit caps the number
// returned (newest kept); limit <= 0 means no cap. The returned slices are
// reused by the next call.
func (c *Controller) Plan(now time.Time, feelings []feeling.Feeling, limit int) Plan {
	nowMs := toMs(now)
	c.gen++

	c.order = c.order[:0]
	for i := range feelings {
		c.order = append(c.order, i)
	}
	slices.SortStableFunc(c.order, func(a, b int) int {
		if d := feelings[a].CreatedAt.Compare(feelings[b].CreatedAt); d != 0 {
			return d
		}
		return strings.Compare(feelings[a].ID, feelings[b].ID)
	})

	c.ribbons = c.ribbons[:0]
	c.entered = c.entered[:0]
	var st Stats
	st.Candidates = len(feelings)
	n := len(c.order)

	for rank, fi := range c.order {
		f := &feelings[fi]
		p, err := emotion.Lookup(f.EmotionID)
		if err != nil {
			st.Invalid++
			continue
		}
		d := c.cache.get(*f, p, nowMs)
		d.seen = c.gen
		if len(d.Ys) < 2 {
			st.Invalid++
			continue
		}

		delay := StaggerDelay(n-1-rank, n)
		created := toMs(f.CreatedAt)
		age := nowMs - created - delay
		if age < 0 {
			st.Pending++
			continue
		}
		appear := nowMs - math.Max(created, d.firstSeen) - delay
		if appear < 0 {
			st.Pending++
			continue
		}

		v := vitality.Vitality(age, c.lifespan)
		s := vitality.Derive(v, appear, d.Base)
		if !s.Visible() {
			st.Faded++
			continue
		}

		travel := age * FlowSpeed * s.SpeedFactor
		headX := HeadX(travel, s.Length)
		if !OnScreen(headX, s.Length) {
			st.OffScreen++
			continue
		}

		c.ribbons = append(c.ribbons, RibbonFrame{
			ID:           f.ID,
			EmotionID:    f.EmotionID,
			Color:        d.Color,
			Alpha:        s.Alpha,
			Vitality:     v,
			Thickness:    s.Thickness,
			Length:       s.Length,
			Glow:         s.Glow,
			HeadX:        headX,
			WaveOffset:   WaveOffset(travel, s.Length),
			SpeedFactor:  s.SpeedFactor,
			ParticleRate: s.ParticleRate,
			Path:         d.Ys,
		})
	}

	if limit > 0 && len(c.ribbons) > limit {
		st.Dropped = len(c.ribbons) - limit
		c.ribbons = c.ribbons[len(c.ribbons)-limit:]
	}
	st.Admitted = len(c.ribbons)
	for i := range c.ribbons {
		if id := c.ribbons[i].ID; !c.shown[id] {
			c.shown[id] = true
			c.entered = append(c.entered, id)
		}
	}

	if c.gen%pruneEvery == 0 {
		c.prune()
	}
	return Plan{Ribbons: c.ribbons, Stats: st, Entered: c.entered}
}

// Forget drops the cached entry for id.
func (c *Controller) Forget(id string) {
	c.cache.forget(id)
	delete(c.shown, id)
}

// Prune drops every cached entry whose id is not in live.
func (c *Controller) Prune(live []feeling.Feeling) {
	keep := make(map[string]struct{}, len(live))
	for i := range live {
		keep[live[i].ID] = struct{}{}
	}
	for id := range c.cache.m {
		if _, ok := keep[id]; !ok {
			c.Forget(id)
		}
	}
}

// prune drops entries not seen by the latest plan.
func (c *Controller) prune() {
	for id, d := range c.cache.m {
		if d.seen != c.gen {
			c.Forget(id)
		}
	}
}

// StaggerDelay returns the entry delay for the ribbon that is rank
// positions older than the newest of n.
func StaggerDelay(rankFromNewest, n int) float64 {
	if rankFromNewest <= 0 || n <= 1 {
		return 0
	}
	return math.Min(float64(rankFromNewest)*StaggerStepMs, StaggerMaxMs)
}

// HeadX places the head for a total travel. The ribbon re-enters from the
// right once it has fully left on the left, with period 1+length.
func HeadX(travel, length float64) float64 {
	cycle := 1 + length
	m := math.Mod(travel, cycle)
	if m < 0 {
		m += cycle
	}
	return 1 - m
}

// OnScreen reports whether [headX, headX+length] meets the inflated view.
func OnScreen(headX, length float64) bool {
	return headX+length >= -CullMargin && headX <= 1+CullMargin
}

// WaveOffset is the normalized phase of the shape under the body.
func WaveOffset(travel, length float64) float64 {
	if length <= 0 {
		return 0
	}
	return frac(travel / length)
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

// toMs keeps whole milliseconds exact; UnixNano exceeds float64 precision.
func toMs(t time.Time) float64 {
	return float64(t.UnixMilli()) + float64(t.Nanosecond()%int(time.Millisecond))/1e6
}
