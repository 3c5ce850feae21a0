package glutil

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
)

func TestTrimLog(t *testing.T) {
	assert.Equal(t, "0:3(1): error: syntax error", trimLog("0:3(1): error: syntax error\n\x00\x00"))
	assert.Empty(t, trimLog("\x00"))
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "vertex", kindName(gl.VERTEX_SHADER))
	assert.Equal(t, "fragment", kindName(gl.FRAGMENT_SHADER))
	assert.Equal(t, "0x1", kindName(1))
}
