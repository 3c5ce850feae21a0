package display

import (
	"errors"
	"fmt"

	"github.com/gogpu/gg"
)

// PNGPresenter is an offscreen target. It keeps a copy of the latest frame
// and writes it out on Save.
type PNGPresenter struct {
	W, H   int
	last   *gg.Pixmap
	frames int
}

func NewPNGPresenter(w, h int) *PNGPresenter { return &PNGPresenter{W: w, H: h} }

func (p *PNGPresenter) Size() (int, int) { return p.W, p.H }

func (p *PNGPresenter) Present(pm *gg.Pixmap) error {
	if p.last == nil || p.last.Width() != pm.Width() || p.last.Height() != pm.Height() {
		p.last = gg.NewPixmap(pm.Width(), pm.Height())
	}
	copy(p.last.Data(), pm.Data())
	p.frames++
	return nil
}

// Frames is the number of frames presented so far.
func (p *PNGPresenter) Frames() int { return p.frames }

// Last is the most recent frame, or nil.
func (p *PNGPresenter) Last() *gg.Pixmap { return p.last }

// Save writes the most recent frame to path.
func (p *PNGPresenter) Save(path string) error {
	if p.last == nil {
		return errors.New("display: no frame presented")
	}
	if err := p.last.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
