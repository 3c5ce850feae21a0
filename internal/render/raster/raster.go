// Package raster draws ribbons with CPU-side 2D primitives on a gg.Context
// and hands finished frames to a Presenter.
package raster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"

	"ribbons/internal/emotion"
	"ribbons/internal/engine"
	"ribbons/internal/feeling"
	"ribbons/internal/render"
)

const (
	// GlowDownscale is the resolution divisor of the glow scratch layer.
	// Upscaling it bilinearly is what softens the glow.
	GlowDownscale = 4
	// ScratchSlack is how far past the glow layer, in layer sizes, a
	// ribbon box may reach before the ribbon is skipped.
	ScratchSlack = 2

	outerAlpha = 0.55
	coreWidth  = 0.45
	coreAlpha  = 0.9
	coreLift   = 0.35
	glowAlpha  = 0.4
)

var white = emotion.RGB{R: 255, G: 255, B: 255}

// Presenter receives finished frames.
type Presenter interface {
	// Size is the target size in pixels.
	Size() (w, h int)
	Present(pm *gg.Pixmap) error
}

// Renderer is the CPU backend.
type Renderer struct {
	log   *slog.Logger
	stage *render.Stage
	out   Presenter

	dc   *gg.Context
	glow *gg.Context
	w, h int

	bodies           [][]engine.BodyPoint
	drawable         []bool
	glowBuf, normBuf []float32
	closed           bool
	fillErrs         int
}

// New builds a CPU renderer drawing at the presenter's size. Its ribbon
// budget follows the observed frame rate.
func New(live *render.Live, out Presenter, log *slog.Logger, seed uint64) (*Renderer, error) {
	return build(live, out, log, seed, true)
}

// NewFixed is New without admission control, for clocks that do not run
// in real time.
func NewFixed(live *render.Live, out Presenter, log *slog.Logger, seed uint64) (*Renderer, error) {
	return build(live, out, log, seed, false)
}

func build(live *render.Live, out Presenter, log *slog.Logger, seed uint64, adaptive bool) (*Renderer, error) {
	if log == nil {
		log = slog.Default()
	}
	w, h := out.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid surface %dx%d", w, h)
	}
	r := &Renderer{
		log:   log.With("backend", render.KindCPU),
		stage: render.NewStage(live, render.HardCap, adaptive, seed),
		out:   out,
	}
	r.resize(w, h)
	return r, nil
}

func (r *Renderer) Kind() render.Kind { return render.KindCPU }

// Stage exposes the per-renderer working state.
func (r *Renderer) Stage() *render.Stage { return r.stage }

func (r *Renderer) resize(w, h int) {
	r.w, r.h = w, h
	gw, gh := max(w/GlowDownscale, 1), max(h/GlowDownscale, 1)
	if r.dc == nil {
		r.dc = gg.NewContext(w, h)
		r.glow = gg.NewContext(gw, gh)
		return
	}
	if err := r.dc.Resize(w, h); err != nil {
		r.log.Warn("resize frame", "err", err)
	}
	if err := r.glow.Resize(gw, gh); err != nil {
		r.log.Warn("resize glow layer", "err", err)
	}
}

// Tick draws one frame unless the frame-rate cap asks to skip it.
func (r *Renderer) Tick(now time.Time, feelings []feeling.Feeling) (render.FrameStats, error) {
	if r.closed {
		return render.FrameStats{}, errors.New("raster: renderer closed")
	}
	step, ok := r.stage.Advance(now, feelings)
	if !ok {
		return render.FrameStats{Skipped: true}, nil
	}
	start := time.Now()
	stats := r.stage.Stats(step)

	if w, h := r.out.Size(); w > 0 && h > 0 && (w != r.w || h != r.h) {
		r.resize(w, h)
	}
	bg := step.Settings.Background
	r.dc.ClearWithColor(gg.RGB(bg.Floats()))

	ribbons := step.Plan.Ribbons
	segments := step.Settings.SplineSegments
	for len(r.bodies) < len(ribbons) {
		r.bodies = append(r.bodies, nil)
	}
	r.drawable = r.drawable[:0]
	gw, gh := r.glow.Width(), r.glow.Height()
	for i := range ribbons {
		r.bodies[i] = engine.Body(ribbons[i], segments, float64(r.w), float64(r.h), r.bodies[i][:0])
		fits := fitsScratch(r.bodies[i], engine.GlowWiden, gw, gh)
		if !fits {
			stats.TooLarge++
		}
		r.drawable = append(r.drawable, fits)
	}

	if step.Settings.Glow {
		r.glow.Clear()
		for i := range ribbons {
			if r.drawable[i] {
				r.drawGlow(ribbons[i], r.bodies[i])
			}
		}
		r.compositeGlow()
	}

	for i := range ribbons {
		if !r.drawable[i] {
			continue
		}
		if err := r.drawRibbon(ribbons[i], r.bodies[i]); err != nil {
			r.fillFailed(ribbons[i].ID, err)
			continue
		}
		stats.Drawn++
	}

	r.drawParticles()

	_ = r.dc.FlushGPU()
	if err := r.out.Present(r.dc.ResizeTarget()); err != nil {
		return stats, fmt.Errorf("raster: present: %w", err)
	}
	stats.Work = time.Since(start)
	return stats, nil
}

func (r *Renderer) fillFailed(id string, err error) {
	r.fillErrs++
	if r.fillErrs == 1 {
		r.log.Warn("ribbon fill failed, skipping", "id", id, "err", err)
	}
}

// fitsScratch reports whether the widened box of pts, measured in glow
// layer pixels, stays within ScratchSlack layers of a w by h glow layer.
func fitsScratch(pts []engine.BodyPoint, widen float64, w, h int) bool {
	if len(pts) == 0 {
		return false
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		pad := p.HalfWidth * widen
		minX = math.Min(minX, p.X-pad)
		maxX = math.Max(maxX, p.X+pad)
		minY = math.Min(minY, p.Y-pad)
		maxY = math.Max(maxY, p.Y+pad)
	}
	bw, bh := (maxX-minX)/GlowDownscale, (maxY-minY)/GlowDownscale
	if math.IsNaN(bw) || math.IsNaN(bh) {
		return false
	}
	return bw <= float64(ScratchSlack*w) && bh <= float64(ScratchSlack*h)
}

// traceSilhouette adds the closed outline of pts to the path, widened by
// widen and scaled by s.
func traceSilhouette(dc *gg.Context, pts []engine.BodyPoint, widen, s float64) {
	for i, p := range pts {
		x := (p.X + p.NX*p.HalfWidth*widen) * s
		y := (p.Y + p.NY*p.HalfWidth*widen) * s
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		dc.LineTo((p.X-p.NX*p.HalfWidth*widen)*s, (p.Y-p.NY*p.HalfWidth*widen)*s)
	}
	dc.ClosePath()
}

// fade is the tail-to-head gradient from transparent to col at alpha a.
func fade(pts []engine.BodyPoint, col emotion.RGB, a, s float64) *gg.LinearGradientBrush {
	tail, head := pts[0], pts[len(pts)-1]
	cr, cg, cb := col.Floats()
	return gg.NewLinearGradientBrush(tail.X*s, tail.Y*s, head.X*s, head.Y*s).
		AddColorStop(0, gg.RGBA2(cr, cg, cb, 0)).
		AddColorStop(1, gg.RGBA2(cr, cg, cb, a))
}

func (r *Renderer) drawGlow(f engine.RibbonFrame, pts []engine.BodyPoint) {
	s := 1.0 / GlowDownscale
	tint := f.Color.Lerp(white, 0.25)
	r.glow.SetFillBrush(fade(pts, tint, f.Alpha*f.Glow*glowAlpha, s))
	traceSilhouette(r.glow, pts, engine.GlowWiden, s)
	if err := r.glow.Fill(); err != nil {
		r.glow.ClearPath()
	}
}

func (r *Renderer) compositeGlow() {
	img := gg.ImageBufFromImage(r.glow.Image())
	r.dc.DrawImageEx(img, gg.DrawImageOptions{
		DstWidth:      float64(r.w),
		DstHeight:     float64(r.h),
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendScreen,
	})
}

func (r *Renderer) drawRibbon(f engine.RibbonFrame, pts []engine.BodyPoint) error {
	// Outer soft layer.
	r.dc.SetFillBrush(fade(pts, f.Color, f.Alpha*outerAlpha, 1))
	traceSilhouette(r.dc, pts, 1, 1)
	if err := r.dc.Fill(); err != nil {
		r.dc.ClearPath()
		return err
	}

	// Rounded head cap.
	head := pts[len(pts)-1]
	cr, cg, cb := f.Color.Floats()
	r.dc.SetFillBrush(gg.Solid(gg.RGBA2(cr, cg, cb, f.Alpha*outerAlpha)))
	r.dc.DrawCircle(head.X, head.Y, head.HalfWidth)
	if err := r.dc.Fill(); err != nil {
		r.dc.ClearPath()
		return err
	}

	// Inner bright core.
	core := f.Color.Lerp(white, coreLift)
	r.dc.SetFillBrush(fade(pts, core, f.Alpha*coreAlpha, 1))
	traceSilhouette(r.dc, pts, coreWidth, 1)
	if err := r.dc.Fill(); err != nil {
		r.dc.ClearPath()
		return err
	}
	return nil
}

func (r *Renderer) drawParticles() {
	r.glowBuf, r.normBuf = r.stage.Particles().RenderData(r.glowBuf, r.normBuf)
	w, h := float64(r.w), float64(r.h)

	for i := 0; i+7 < len(r.normBuf); i += 8 {
		b := r.normBuf[i : i+8]
		r.dc.SetFillBrush(gg.Solid(gg.RGBA2(float64(b[3]), float64(b[4]), float64(b[5]), float64(b[6]))))
		r.dc.DrawCircle(float64(b[0])*w, float64(b[1])*h, spriteRadius(b[2]))
		if err := r.dc.Fill(); err != nil {
			r.dc.ClearPath()
		}
	}
	for i := 0; i+7 < len(r.glowBuf); i += 8 {
		b := r.glowBuf[i : i+8]
		a := float64(b[6])
		if a <= 0 {
			continue
		}
		// Glow motes are premultiplied; the brush wants straight colour.
		cr, cg, cb := float64(b[3])/a, float64(b[4])/a, float64(b[5])/a
		x, y, rad := float64(b[0])*w, float64(b[1])*h, spriteRadius(b[2])
		r.dc.SetFillBrush(gg.NewRadialGradientBrush(x, y, 0, rad).
			AddColorStop(0, gg.RGBA2(cr, cg, cb, a)).
			AddColorStop(1, gg.RGBA2(cr, cg, cb, 0)))
		r.dc.DrawCircle(x, y, rad)
		if err := r.dc.Fill(); err != nil {
			r.dc.ClearPath()
		}
	}
}

// spriteRadius turns a particle size, a diameter as for GL point sprites,
// into a circle radius.
func spriteRadius(size float32) float64 { return float64(size) * 0.5 }

// Close releases the drawing contexts. It is safe to call twice.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.dc.Close(), r.glow.Close())
}
