package ambience

import (
	"io"
	"math"
	"sync"

	"ribbons/internal/emotion"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	frameBytes   = 8 // stereo float32 LE

	// glide is the per-sample step toward a new voice weight (about 1 s).
	glide = 1.0 / SampleRate
)

// putStereoF32LR writes independent left/right samples in [-1,1].
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}

// softSat applies gentle tanh-like saturation, no harsh clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/(x)
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// fm returns an FM-synthesized sample.
func fm(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// Drone is an endless pad with one voice per emotion, each at its
// profile's root. Voice loudness follows the weights set by SetWeights and
// glides to new values instead of jumping.
type Drone struct {
	mu     sync.Mutex
	target []float64

	roots  []float64
	weight []float64
	t      float64
}

func NewDrone() *Drone {
	all := emotion.All()
	d := &Drone{
		roots:  make([]float64, len(all)),
		weight: make([]float64, len(all)),
		target: make([]float64, len(all)),
	}
	for i, p := range all {
		d.roots[i] = p.RootHz
	}
	return d
}

// SetWeights sets voice targets from visible ribbon counts per emotion.
// Weights are shares of the total, so the overall level stays constant.
func (d *Drone) SetWeights(counts map[string]int) {
	total := 0
	for _, n := range counts {
		total += max(n, 0)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.target {
		d.target[i] = 0
	}
	if total == 0 {
		return
	}
	for id, n := range counts {
		if i := emotion.Index(id); i >= 0 && n > 0 {
			d.target[i] = float64(n) / float64(total)
		}
	}
}

// Read fills p with whole stereo float32 frames. It never ends.
func (d *Drone) Read(p []byte) (int, error) {
	samples := len(p) / frameBytes
	if samples == 0 {
		return 0, nil
	}
	d.mu.Lock()
	target := append([]float64(nil), d.target...)
	d.mu.Unlock()

	for i := range samples {
		l, r := 0.0, 0.0
		for v, root := range d.roots {
			w := d.weight[v]
			if w < target[v] {
				w = math.Min(target[v], w+glide)
			} else if w > target[v] {
				w = math.Max(target[v], w-glide)
			}
			d.weight[v] = w
			if w == 0 {
				continue
			}
			swell := 0.75 + 0.25*math.Sin(2*math.Pi*(0.05+0.01*float64(v))*d.t)
			s := fm(d.t, root, 1.5, 0.6) * w * swell * 0.22
			s += math.Sin(2*math.Pi*root*2.003*d.t) * w * 0.05
			pan := float64(v)/float64(max(len(d.roots)-1, 1))*0.6 + 0.2
			l += s * (1 - pan)
			r += s * pan
		}
		putStereoF32LR(p, i, softSat(l), softSat(r))
		d.t += 1.0 / SampleRate
	}
	return samples * frameBytes, nil
}

// Chime renders a short bell for an arrival, pitched an octave above the
// emotion's root.
func Chime(rootHz float64) []byte {
	n := int(1.2 * SampleRate)
	buf := make([]byte, n*frameBytes)
	freq := rootHz * 2
	for i := range n {
		t := float64(i) / SampleRate
		env := math.Exp(-t*3.2) * math.Min(1, t*400)
		s := fm(t, freq, 3.5, 2.2*env) * env * 0.3
		s += math.Sin(2*math.Pi*freq*2.76*t) * env * env * 0.08
		v := softSat(s)
		putStereoF32LR(buf, i, v, v)
	}
	return buf
}

type soundReader struct {
	data []byte
	pos  int
}

func (r *soundReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
