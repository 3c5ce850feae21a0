package display

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGPresenterCopiesFrame(t *testing.T) {
	p := NewPNGPresenter(4, 3)
	w, h := p.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	require.Error(t, p.Save(filepath.Join(t.TempDir(), "none.png")))

	pm := gg.NewPixmap(4, 3)
	pm.Data()[0] = 200
	require.NoError(t, p.Present(pm))
	pm.Data()[0] = 7
	assert.Equal(t, uint8(200), p.Last().Data()[0], "frame is copied")
	assert.Equal(t, 1, p.Frames())

	out := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, p.Save(out))
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestHeadlessClosesAfterFrames(t *testing.T) {
	h := &Headless{Frames: 2}
	assert.False(t, h.ShouldClose())
	h.PollEvents()
	h.Swap()
	assert.False(t, h.ShouldClose())
	h.PollEvents()
	assert.True(t, h.ShouldClose())
	assert.Equal(t, 1, h.Swaps())
}
