package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"ribbons/internal/glutil"
	"ribbons/internal/render/gpu/layout"
)

// Probe checks the current GL context for what the backend needs: a 4.1
// core context, a data texture tall enough for every instance and
// programs that compile and link. gl.Init must have succeeded first.
func Probe() error {
	p := gl.GetString(gl.VERSION)
	if p == nil {
		return fmt.Errorf("%w: no current context", ErrUnavailable)
	}
	version := gl.GoStr(p)
	major, minor, ok := layout.ParseVersion(version)
	if !ok || !layout.AtLeast(major, minor, 4, 1) {
		return fmt.Errorf("%w: OpenGL %q", ErrUnavailable, version)
	}

	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	if maxTex < layout.MaxInstances {
		return fmt.Errorf("%w: max texture size %d", ErrUnavailable, maxTex)
	}

	for _, src := range [][2]string{
		{ribbonVertSrc, ribbonCoreFragSrc},
		{ribbonVertSrc, ribbonGlowFragSrc},
		{spriteVertSrc, glowFragSrc},
	} {
		prog, err := glutil.Program(src[0], src[1])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		gl.DeleteProgram(prog)
	}
	return nil
}

// Available reports whether Probe passes on the current context.
func Available() bool { return Probe() == nil }
