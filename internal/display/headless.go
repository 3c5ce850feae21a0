package display

// Headless is a loop surface with no window. It asks to close after Frames
// polls.
type Headless struct {
	Frames int
	polls  int
	swaps  int
}

func (h *Headless) PollEvents()       { h.polls++ }
func (h *Headless) ShouldClose() bool { return h.polls >= h.Frames }
func (h *Headless) Swap()             { h.swaps++ }

// Swaps is the number of frames actually drawn.
func (h *Headless) Swaps() int { return h.swaps }
