package shape

// Hash32 is the rolling string hash (h = h*31 + c over bytes, 32-bit wrap).
// It must never change: stored shapes are re-derivable from it.
func Hash32(s string) uint32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	return uint32(h)
}

// Seeded is a mulberry32 stream.
type Seeded struct {
	a uint32
}

// NewSeeded seeds a stream from the hash of key.
func NewSeeded(key string) *Seeded {
	return &Seeded{a: Hash32(key)}
}

// NewSeededU32 seeds a stream from a raw state.
func NewSeededU32(state uint32) *Seeded {
	return &Seeded{a: state}
}

// Next returns a float in [0,1).
func (r *Seeded) Next() float64 {
	r.a += 0x6D2B79F5
	t := r.a
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// IntRange returns an integer in [min,max], inclusive.
func (r *Seeded) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(r.Next()*float64(max-min+1))
}

// Range returns a float in [min,max).
func (r *Seeded) Range(min, max float64) float64 {
	return min + (max-min)*r.Next()
}
