// Package layout packs ribbon frames into the buffers the GPU backend
// uploads: one instance record and one data-texture row per ribbon, a
// shared triangle-strip body and point-sprite head caps.
package layout

import (
	"strconv"
	"strings"

	"ribbons/internal/engine"
	"ribbons/internal/shape"
)

const (
	// MaxPathSamples is the data texture width.
	MaxPathSamples = 64
	// MaxInstances is the data texture height and the instance hard cap.
	MaxInstances = 5000

	// InstanceFloats is the per-instance stride:
	// r, g, b, alpha | thickness, headX, length, waveOffset | row, pathLen, vitality, glow.
	InstanceFloats = 12
	// StripFloats is the per-vertex stride of the body strip: t, side.
	StripFloats = 2
	// SpriteFloats is the point-sprite stride: x, y, size, r, g, b, a, rotation.
	SpriteFloats = 8
)

// Frame holds the packed buffers for one draw.
type Frame struct {
	Instances []float32
	Paths     []float32 // Count rows of MaxPathSamples
	Caps      []float32
	Count     int
}

// Reset empties f while keeping its storage.
func (f *Frame) Reset() {
	f.Instances = f.Instances[:0]
	f.Paths = f.Paths[:0]
	f.Caps = f.Caps[:0]
	f.Count = 0
}

// Pack appends up to MaxInstances ribbons to f. Ribbons with fewer than two
// samples are skipped. heightPx sizes the head caps.
func (f *Frame) Pack(ribbons []engine.RibbonFrame, heightPx float64) int {
	for _, r := range ribbons {
		if f.Count >= MaxInstances {
			break
		}
		n := len(r.Path)
		if n < 2 {
			continue
		}
		row := f.Count
		f.Paths = AppendRow(f.Paths, r.Path)
		if n > MaxPathSamples {
			n = MaxPathSamples
		}

		cr, cg, cb := r.Color.Floats()
		f.Instances = append(f.Instances,
			float32(cr), float32(cg), float32(cb), float32(r.Alpha),
			float32(r.Thickness), float32(r.HeadX), float32(r.Length), float32(r.WaveOffset),
			float32(row), float32(n), float32(r.Vitality), float32(r.Glow),
		)

		hy, _ := engine.SampleY(r.Path, r.WaveOffset, 1)
		f.Caps = append(f.Caps,
			float32(r.HeadX), float32(hy), float32(r.Thickness*heightPx),
			float32(cr), float32(cg), float32(cb), float32(r.Alpha), 0,
		)
		f.Count++
	}
	return f.Count
}

// AppendRow appends one MaxPathSamples-wide row for path. Longer paths are
// resampled along their closed spline; shorter ones are zero padded.
func AppendRow(dst []float32, path []float64) []float32 {
	if len(path) <= MaxPathSamples {
		for _, v := range path {
			dst = append(dst, float32(v))
		}
		for range MaxPathSamples - len(path) {
			dst = append(dst, 0)
		}
		return dst
	}
	step := float64(len(path)) / MaxPathSamples
	for i := range MaxPathSamples {
		y, _ := shape.EvalPeriodic(path, float64(i)*step)
		dst = append(dst, float32(y))
	}
	return dst
}

// Strip returns the body strip for segments: (segments+1) pairs of
// (t, -1), (t, +1), tail first.
func Strip(segments int) []float32 {
	segments = max(segments, 1)
	v := make([]float32, 0, (segments+1)*2*StripFloats)
	for i := 0; i <= segments; i++ {
		t := float32(i) / float32(segments)
		v = append(v, t, -1, t, 1)
	}
	return v
}

// StripVertices is the vertex count of Strip(segments).
func StripVertices(segments int) int {
	return (max(segments, 1) + 1) * 2
}

// ParseVersion extracts major and minor from a GL_VERSION string such as
// "4.1 Metal - 83.1" or "4.6.0 NVIDIA 550.54".
func ParseVersion(s string) (major, minor int, ok bool) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return 0, 0, false
	}
	parts := strings.SplitN(f[0], ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	var err error
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// AtLeast reports whether major.minor is at least want.
func AtLeast(major, minor, wantMajor, wantMinor int) bool {
	return major > wantMajor || (major == wantMajor && minor >= wantMinor)
}
