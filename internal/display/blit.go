package display

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gg"

	"ribbons/internal/glutil"
)

const blitVertSrc = `#version 410 core

out vec2 vUV;

void main() {
    // Fullscreen triangle from the vertex id.
    vec2 p = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2));
    vUV = vec2(p.x, 1.0 - p.y);
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const blitFragSrc = `#version 410 core

in vec2 vUV;
uniform sampler2D uFrame;
out vec4 FragColor;

void main() {
    FragColor = vec4(texture(uFrame, vUV).rgb, 1.0);
}
` + "\x00"

// Blitter shows CPU-rendered frames in the window: each Present uploads the
// pixmap into a texture and draws it over the whole framebuffer.
type Blitter struct {
	win  *Window
	prog uint32
	vao  uint32
	tex  uint32
	uTex int32
	tw   int
	th   int
}

// NewBlitter builds the blit program and texture on win's context.
func NewBlitter(win *Window) (*Blitter, error) {
	if win == nil {
		return nil, ErrNoWindow
	}
	prog, err := glutil.Program(blitVertSrc, blitFragSrc)
	if err != nil {
		return nil, fmt.Errorf("blit program: %w", err)
	}
	b := &Blitter{win: win, prog: prog}
	b.uTex = gl.GetUniformLocation(prog, gl.Str("uFrame\x00"))
	gl.GenVertexArrays(1, &b.vao)
	gl.GenTextures(1, &b.tex)
	gl.BindTexture(gl.TEXTURE_2D, b.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return b, nil
}

// Size is the window's framebuffer size.
func (b *Blitter) Size() (int, int) { return b.win.FramebufferSize() }

// Present draws pm into the back buffer. The caller swaps.
func (b *Blitter) Present(pm *gg.Pixmap) error {
	w, h := pm.Width(), pm.Height()
	data := pm.Data()
	if w <= 0 || h <= 0 || len(data) < w*h*4 {
		return fmt.Errorf("display: bad frame %dx%d", w, h)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.tex)
	if w != b.tw || h != b.th {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data))
		b.tw, b.th = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data))
	}

	fbW, fbH := b.win.FramebufferSize()
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.UseProgram(b.prog)
	gl.Uniform1i(b.uTex, 0)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("display: gl error 0x%x", code)
	}
	return nil
}

func (b *Blitter) Close() error {
	if b.prog == 0 {
		return nil
	}
	gl.DeleteTextures(1, &b.tex)
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteProgram(b.prog)
	b.prog, b.tex, b.vao = 0, 0, 0
	return nil
}
