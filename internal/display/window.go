// Package display owns the desktop surface: the glfw window and GL context,
// a blitter that shows CPU-rendered frames, and a PNG presenter for
// headless snapshots.
package display

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options configure the window.
type Options struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	VSync     bool
}

// Window is a glfw window with a current OpenGL 4.1 core context. Every
// method must be called from the thread that opened it.
type Window struct {
	w      *glfw.Window
	closed bool
}

// Open creates the window, makes its context current and loads GL entry
// points. The caller must have locked the OS thread.
func Open(o Options) (*Window, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("display: invalid size %dx%d", o.Width, o.Height)
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolHint(o.Resizable))
	glfw.WindowHint(glfw.Decorated, glfw.True)

	win, err := glfw.CreateWindow(o.Width, o.Height, o.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if o.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init: %w", err)
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	return &Window{w: win}, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// FramebufferSize is the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) { return w.w.GetFramebufferSize() }

// Size is FramebufferSize; it lets a Window stand in as a raster target size.
func (w *Window) Size() (int, int) { return w.w.GetFramebufferSize() }

// ShouldClose reports a close request from the window manager or Escape.
func (w *Window) ShouldClose() bool {
	if w.w.GetKey(glfw.KeyEscape) == glfw.Press {
		w.w.SetShouldClose(true)
	}
	return w.w.ShouldClose()
}

// RequestClose asks the loop to end after the current frame.
func (w *Window) RequestClose() { w.w.SetShouldClose(true) }

func (w *Window) PollEvents() { glfw.PollEvents() }

func (w *Window) Swap() { w.w.SwapBuffers() }

// Close destroys the window and terminates glfw. Safe to call twice.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.w.Destroy()
	glfw.Terminate()
	return nil
}

// ErrNoWindow is returned by presenters used without a window.
var ErrNoWindow = errors.New("display: no window")
