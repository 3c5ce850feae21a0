// Package gpu is the OpenGL 4.1 core backend. Ribbon bodies are instanced
// triangle strips whose shape is evaluated in the vertex stage from a
// shared float data texture holding every visible ribbon's path.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"ribbons/internal/engine"
	"ribbons/internal/feeling"
	"ribbons/internal/glutil"
	"ribbons/internal/particle"
	"ribbons/internal/render"
	"ribbons/internal/render/gpu/layout"
)

// ErrUnavailable marks an environment that cannot run this backend.
var ErrUnavailable = errors.New("gpu backend unavailable")

const (
	// MaxSprites bounds the point-sprite stream buffer.
	MaxSprites = particle.MaxParticles + layout.MaxInstances

)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Surface is the framebuffer being drawn to.
type Surface interface {
	FramebufferSize() (w, h int)
}

type ribbonUniforms struct {
	paths      int32
	resolution int32
	widen      int32
	maxSlope   int32
	tailWidth  int32
	taperExp   int32
}

func lookupRibbonUniforms(prog uint32) ribbonUniforms {
	return ribbonUniforms{
		paths:      gl.GetUniformLocation(prog, gl.Str("uPaths\x00")),
		resolution: gl.GetUniformLocation(prog, gl.Str("uResolution\x00")),
		widen:      gl.GetUniformLocation(prog, gl.Str("uWiden\x00")),
		maxSlope:   gl.GetUniformLocation(prog, gl.Str("uMaxSlope\x00")),
		tailWidth:  gl.GetUniformLocation(prog, gl.Str("uTailWidth\x00")),
		taperExp:   gl.GetUniformLocation(prog, gl.Str("uTaperExp\x00")),
	}
}

// Renderer is the GPU backend. It must be created and used on the thread
// that owns the current GL context.
type Renderer struct {
	log   *slog.Logger
	stage *render.Stage
	surf  Surface

	coreProg uint32
	glowProg uint32
	coreU    ribbonUniforms
	glowU    ribbonUniforms

	ribbonVAO   uint32
	stripVBO    uint32
	instanceVBO uint32
	stripVerts  int32
	segments    int

	spriteProg     uint32
	glowSpriteProg uint32
	spriteVAO      uint32
	spriteVBO      uint32
	spUResolution  int32
	gsUResolution  int32

	pathTex uint32

	frame            layout.Frame
	glowBuf, normBuf []float32
	closed           bool
}

// New probes the context and builds every GL object. Any failure is
// reported wrapped in ErrUnavailable and leaves nothing allocated.
func New(live *render.Live, surf Surface, log *slog.Logger, seed uint64) (*Renderer, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := Probe(); err != nil {
		return nil, err
	}

	r := &Renderer{
		log:   log.With("backend", render.KindGPU),
		stage: render.NewStage(live, layout.MaxInstances, false, seed),
		surf:  surf,
	}
	if err := r.init(); err != nil {
		r.release()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return r, nil
}

func (r *Renderer) init() error {
	var err error
	if r.coreProg, err = glutil.Program(ribbonVertSrc, ribbonCoreFragSrc); err != nil {
		return fmt.Errorf("ribbon core program: %w", err)
	}
	if r.glowProg, err = glutil.Program(ribbonVertSrc, ribbonGlowFragSrc); err != nil {
		return fmt.Errorf("ribbon glow program: %w", err)
	}
	if r.spriteProg, err = glutil.Program(spriteVertSrc, spriteFragSrc); err != nil {
		return fmt.Errorf("sprite program: %w", err)
	}
	if r.glowSpriteProg, err = glutil.Program(spriteVertSrc, glowFragSrc); err != nil {
		return fmt.Errorf("glow sprite program: %w", err)
	}
	r.coreU = lookupRibbonUniforms(r.coreProg)
	r.glowU = lookupRibbonUniforms(r.glowProg)
	r.spUResolution = gl.GetUniformLocation(r.spriteProg, gl.Str("uResolution\x00"))
	r.gsUResolution = gl.GetUniformLocation(r.glowSpriteProg, gl.Str("uResolution\x00"))

	// Ribbon VAO: static strip (per vertex) + instance records (per instance).
	gl.GenVertexArrays(1, &r.ribbonVAO)
	gl.GenBuffers(1, &r.stripVBO)
	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindVertexArray(r.ribbonVAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.stripVBO)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, layout.StripFloats*4, glOffset(0))

	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	stride := int32(layout.InstanceFloats * 4)
	gl.BufferData(gl.ARRAY_BUFFER, layout.MaxInstances*int(stride), nil, gl.STREAM_DRAW)
	for loc := uint32(1); loc <= 3; loc++ {
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, 4, gl.FLOAT, false, stride, glOffset(int(loc-1)*4*4))
		gl.VertexAttribDivisor(loc, 1)
	}

	// Sprite VAO/VBO: streaming buffer for point sprites.
	// Each sprite: 8 floats (x, y, size, r, g, b, a, rotation).
	gl.GenVertexArrays(1, &r.spriteVAO)
	gl.GenBuffers(1, &r.spriteVBO)
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)
	sstride := int32(layout.SpriteFloats * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxSprites*int(sstride), nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, sstride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, sstride, glOffset(2*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, sstride, glOffset(3*4))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 1, gl.FLOAT, false, sstride, glOffset(7*4))
	gl.BindVertexArray(0)

	// Path data texture: one row per instance.
	gl.GenTextures(1, &r.pathTex)
	gl.BindTexture(gl.TEXTURE_2D, r.pathTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, layout.MaxPathSamples, layout.MaxInstances, 0, gl.RED, gl.FLOAT, nil)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x during setup", code)
	}
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	r.setSegments(render.DefaultSegments)
	return nil
}

// setSegments rebuilds the static strip when the density changes.
func (r *Renderer) setSegments(n int) {
	if n == r.segments && r.stripVerts > 0 {
		return
	}
	strip := layout.Strip(n)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.stripVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(strip)*4, gl.Ptr(strip), gl.STATIC_DRAW)
	r.segments = n
	r.stripVerts = int32(layout.StripVertices(n))
	r.log.Debug("ribbon strip rebuilt", "segments", n)
}

func (r *Renderer) Kind() render.Kind { return render.KindGPU }

// Stage exposes the per-renderer working state.
func (r *Renderer) Stage() *render.Stage { return r.stage }

// Tick draws one frame into the current framebuffer. The caller swaps.
func (r *Renderer) Tick(now time.Time, feelings []feeling.Feeling) (render.FrameStats, error) {
	if r.closed {
		return render.FrameStats{}, errors.New("gpu: renderer closed")
	}
	step, ok := r.stage.Advance(now, feelings)
	if !ok {
		return render.FrameStats{Skipped: true}, nil
	}
	start := time.Now()
	stats := r.stage.Stats(step)

	fbW, fbH := r.surf.FramebufferSize()
	if fbW <= 0 || fbH <= 0 {
		return stats, nil
	}
	r.setSegments(step.Settings.SplineSegments)

	r.frame.Reset()
	n := r.frame.Pack(step.Plan.Ribbons, float64(fbH))

	bg := step.Settings.Background
	br, bgc, bb := bg.Floats()
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.ClearColor(float32(br), float32(bgc), float32(bb), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if n > 0 {
		r.upload(n)
		gl.Enable(gl.BLEND)
		if step.Settings.Glow {
			gl.BlendFunc(gl.ONE, gl.ONE)
			r.drawRibbons(r.glowProg, r.glowU, engine.GlowWiden, fbW, fbH, n)
		}
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		r.drawRibbons(r.coreProg, r.coreU, 1, fbW, fbH, n)
		gl.Disable(gl.BLEND)

		r.drawSprites(r.frame.Caps, fbW, fbH, false)
	}

	// Particles: two passes (normal + glow).
	r.glowBuf, r.normBuf = r.stage.Particles().RenderData(r.glowBuf, r.normBuf)
	r.drawSprites(r.normBuf, fbW, fbH, false)
	r.drawSprites(r.glowBuf, fbW, fbH, true)

	stats.Drawn = n
	stats.Work = time.Since(start)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return stats, fmt.Errorf("gpu: gl error 0x%x", code)
	}
	return stats, nil
}

func (r *Renderer) upload(n int) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.pathTex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, layout.MaxPathSamples, int32(n), gl.RED, gl.FLOAT, gl.Ptr(r.frame.Paths))

	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.frame.Instances)*4, gl.Ptr(r.frame.Instances))
}

func (r *Renderer) drawRibbons(prog uint32, u ribbonUniforms, widen float64, fbW, fbH, n int) {
	gl.UseProgram(prog)
	gl.Uniform1i(u.paths, 0)
	gl.Uniform2f(u.resolution, float32(fbW), float32(fbH))
	gl.Uniform1f(u.widen, float32(widen))
	gl.Uniform1f(u.maxSlope, engine.MaxSlope)
	gl.Uniform1f(u.tailWidth, engine.TailWidth)
	gl.Uniform1f(u.taperExp, engine.TaperExp)

	gl.BindVertexArray(r.ribbonVAO)
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, r.stripVerts, int32(n))
	gl.BindVertexArray(0)
}

// drawSprites renders [x, y, size, r, g, b, a, rotation] * N point sprites.
// additive selects the glow program with ONE, ONE blending.
func (r *Renderer) drawSprites(buf []float32, fbW, fbH int, additive bool) {
	if len(buf) == 0 {
		return
	}
	count := min(len(buf)/layout.SpriteFloats, MaxSprites)

	if additive {
		gl.UseProgram(r.glowSpriteProg)
		gl.Uniform2f(r.gsUResolution, float32(fbW), float32(fbH))
	} else {
		gl.UseProgram(r.spriteProg)
		gl.Uniform2f(r.spUResolution, float32(fbW), float32(fbH))
	}
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)

	gl.Enable(gl.BLEND)
	if additive {
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, count*layout.SpriteFloats*4, gl.Ptr(buf))
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

// Close releases every GL object. It is safe to call twice.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.release()
	return nil
}

func (r *Renderer) release() {
	for _, id := range []uint32{r.stripVBO, r.instanceVBO, r.spriteVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.ribbonVAO, r.spriteVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.coreProg, r.glowProg, r.spriteProg, r.glowSpriteProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
	if r.pathTex != 0 {
		gl.DeleteTextures(1, &r.pathTex)
	}
	r.stripVBO, r.instanceVBO, r.spriteVBO = 0, 0, 0
	r.ribbonVAO, r.spriteVAO = 0, 0
	r.coreProg, r.glowProg, r.spriteProg, r.glowSpriteProg = 0, 0, 0, 0
	r.pathTex = 0
}
