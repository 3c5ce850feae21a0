package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/shape"
)

// maxBurst bounds how many arrivals one call may emit after a long pause.
const maxBurst = 8

// DemoSource is a synthetic population: Size feelings spread over the
// lifespan at start, plus one new arrival every Every. Ids are uuids drawn
// from the seeded stream, so a seed always produces the same population.
type DemoSource struct {
	Size  int
	Every time.Duration
	Now   func() time.Time

	mu   sync.Mutex
	rng  *shape.Seeded
	pop  []feeling.Feeling
	next time.Time
}

// NewDemo builds a demo source. seed keys every id and emotion choice.
func NewDemo(size int, every time.Duration, seed string) *DemoSource {
	return &DemoSource{Size: size, Every: every, rng: shape.NewSeeded(seed)}
}

func (d *DemoSource) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *DemoSource) Feelings(ctx context.Context) ([]feeling.Feeling, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.pop == nil {
		if err := d.populate(now); err != nil {
			return nil, err
		}
	}
	if d.Every > 0 {
		for i := 0; i < maxBurst && !now.Before(d.next); i++ {
			f, err := d.make(d.next)
			if err != nil {
				return nil, err
			}
			d.pop = append(d.pop, f)
			d.next = d.next.Add(d.Every)
		}
		if !now.Before(d.next) {
			d.next = now.Add(d.Every)
		}
	}
	d.pop = Live(d.pop, now)

	out := make([]feeling.Feeling, len(d.pop))
	copy(out, d.pop)
	return out, nil
}

func (d *DemoSource) populate(now time.Time) error {
	d.pop = make([]feeling.Feeling, 0, d.Size)
	for i := range d.Size {
		// Spread ages over (0, Lifespan), oldest first.
		age := time.Duration((float64(d.Size-i) - 0.5) / float64(d.Size) * float64(feeling.Lifespan))
		f, err := d.make(now.Add(-age))
		if err != nil {
			return err
		}
		d.pop = append(d.pop, f)
	}
	d.next = now.Add(d.Every)
	return nil
}

func (d *DemoSource) make(created time.Time) (feeling.Feeling, error) {
	id, err := uuid.NewRandomFromReader(seededReader{d.rng})
	if err != nil {
		return feeling.Feeling{}, fmt.Errorf("demo id: %w", err)
	}
	all := emotion.All()
	p := all[d.rng.IntRange(0, len(all)-1)]
	sid := id.String()
	path := shape.Synthesize(p, shape.StartY(sid), sid)
	return feeling.New(sid, p.ID, "", path, created), nil
}

// seededReader adapts the seeded stream to io.Reader for uuid generation.
type seededReader struct{ r *shape.Seeded }

func (s seededReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(s.r.Next() * 256)
	}
	return len(p), nil
}
