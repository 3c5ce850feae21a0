// Package ambience plays an optional soundscape: a drone whose voices follow
// the visible emotions and a soft chime when a ribbon arrives.
package ambience

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"golang.org/x/time/rate"

	"ribbons/internal/emotion"
)

const (
	droneVolume = 0.35
	chimeVolume = 0.25

	// ChimeEvery and ChimeBurst bound chime density when many ribbons enter
	// at once, as on start-up.
	ChimeEvery = 400 * time.Millisecond
	ChimeBurst = 3
)

// Player owns the audio context. A nil *Player is valid and silent.
type Player struct {
	log   *slog.Logger
	ctx   *oto.Context
	ready chan struct{}
	drone *Drone
	limit *rate.Limiter

	mu      sync.Mutex
	droneP  oto.Player
	enabled bool
	closed  bool
}

// New opens the audio device. It fails on hosts without one; callers carry
// on silently.
func New(log *slog.Logger) (*Player, error) {
	if log == nil {
		log = slog.Default()
	}
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("audio init: %w", err)
	}
	return &Player{
		log:   log,
		ctx:   ctx,
		ready: ready,
		drone: NewDrone(),
		limit: rate.NewLimiter(rate.Every(ChimeEvery), ChimeBurst),
	}, nil
}

func (p *Player) isReady() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// SetEnabled starts or stops the drone. Chimes only sound while enabled.
func (p *Player) SetEnabled(on bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || on == p.enabled {
		return
	}
	if on {
		if !p.isReady() {
			return
		}
		p.droneP = p.ctx.NewPlayer(p.drone)
		p.droneP.SetVolume(droneVolume)
		p.droneP.Play()
	} else if p.droneP != nil {
		if err := p.droneP.Close(); err != nil {
			p.log.Debug("drone close", "error", err)
		}
		p.droneP = nil
	}
	p.enabled = on
}

// SetMix updates the drone voices from visible ribbon counts per emotion.
func (p *Player) SetMix(counts map[string]int) {
	if p == nil {
		return
	}
	p.drone.SetWeights(counts)
}

// Chime plays an arrival chime for emotionID unless disabled or over the
// rate limit. It reports whether a chime started.
func (p *Player) Chime(emotionID string) bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	on := p.enabled && !p.closed
	p.mu.Unlock()
	if !on || !p.isReady() || !p.limit.Allow() {
		return false
	}
	prof, err := emotion.Lookup(emotionID)
	if err != nil {
		return false
	}
	samples := Chime(prof.RootHz)
	go func() {
		player := p.ctx.NewPlayer(&soundReader{data: samples})
		player.SetVolume(chimeVolume)
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
	return true
}

// Close stops the drone. The oto context lives for the process.
func (p *Player) Close() error {
	if p == nil {
		return nil
	}
	p.SetEnabled(false)
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
