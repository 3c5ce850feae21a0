package feeling

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ribbons/internal/emotion"
)

func flatPath(n int) []Point {
	p := make([]Point, n)
	for i := range p {
		p[i] = Point{X: float64(i) / float64(n), Y: 0.5}
	}
	return p
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	f := New("a1", emotion.Joy, "#ffc857", flatPath(PathSamples), time.Unix(1_700_000_000, 0))
	require.NoError(t, Validate(f))
}

func TestValidateRejects(t *testing.T) {
	base := New("a1", emotion.Joy, "", flatPath(PathSamples), time.Unix(1_700_000_000, 0))

	cases := map[string]func(f *Feeling){
		"unknown emotion": func(f *Feeling) { f.EmotionID = "ennui" },
		"short path":      func(f *Feeling) { f.Path = flatPath(1) },
		"missing id":      func(f *Feeling) { f.ID = "" },
		"bad colour":      func(f *Feeling) { f.Color = "red" },
		"wrong lifespan":  func(f *Feeling) { f.ExpiresAt = f.CreatedAt.Add(time.Hour) },
		"y out of range":  func(f *Feeling) { f.Path[3].Y = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := base
			f.Path = append([]Point(nil), base.Path...)
			mutate(&f)
			assert.ErrorIs(t, Validate(f), ErrInvalid)
		})
	}
}

func TestYsDropsNonFinite(t *testing.T) {
	f := Feeling{Path: []Point{{Y: 0.2}, {Y: math.NaN()}, {Y: 0.4}, {Y: math.Inf(1)}}}
	assert.Equal(t, []float64{0.2, 0.4}, f.Ys())
}

func TestExpired(t *testing.T) {
	c := time.Unix(1_700_000_000, 0)
	f := New("x", emotion.Calm, "", flatPath(4), c)
	assert.False(t, f.Expired(c.Add(Lifespan-time.Second)))
	assert.True(t, f.Expired(c.Add(Lifespan)))
}
