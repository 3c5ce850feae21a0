// Package scene hosts the engine: it picks the backend once, runs the frame
// loop on the calling thread and keeps the feed, config watcher and metrics
// listener running beside it.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ribbons/internal/ambience"
	"ribbons/internal/config"
	"ribbons/internal/feed"
	"ribbons/internal/feeling"
	"ribbons/internal/render"
	"ribbons/internal/telemetry"
)

// Surface is what the loop drives: a window or a headless stand-in.
type Surface interface {
	PollEvents()
	ShouldClose() bool
	Swap()
}

// Factory builds a backend on the frame thread.
type Factory func(live *render.Live, log *slog.Logger, seed uint64) (render.Renderer, error)

// Backends are the available factories. A nil GPU means there is no GPU
// path on this host.
type Backends struct {
	GPU Factory
	CPU Factory
}

type Options struct {
	Config config.File
	// ConfigPath enables live reload when set.
	ConfigPath string
	// Overrides are reapplied on every reload so flags win over the file.
	Overrides func(*config.File)

	Source  feed.Source
	Log     *slog.Logger
	Metrics *telemetry.Metrics
	Audio   *ambience.Player
	Seed    uint64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Scene is one running session.
type Scene struct {
	opts Options
	log  *slog.Logger
	live *render.Live
	snap feed.Snapshot
	bus  *EventBus

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	renderer render.Renderer
	kind     render.Kind

	lastAllowed int
	mixVersion  uint64
	errLog      rate.Sometimes

	stopOnce sync.Once
	stopErr  error
}

func New(opts Options) *Scene {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Overrides != nil {
		opts.Overrides(&opts.Config)
	}
	s := &Scene{
		opts:   opts,
		log:    opts.Log,
		live:   render.NewLive(opts.Config.Settings()),
		bus:    NewEventBus(),
		errLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	s.subscribe()
	return s
}

func (s *Scene) Live() *render.Live { return s.live }

func (s *Scene) Bus() *EventBus { return s.bus }

// Kind is the selected backend, empty before Run.
func (s *Scene) Kind() render.Kind { return s.kind }

func (s *Scene) subscribe() {
	s.bus.Subscribe(EventBackendSelected, func(e Event) {
		s.log.Info("backend selected", "kind", e.Kind)
		if s.opts.Metrics != nil {
			s.opts.Metrics.SetBackend(e.Kind)
		}
	})
	s.bus.Subscribe(EventAdmissionChanged, func(e Event) {
		s.log.Info("ribbon cap changed", "allowed", e.Value)
	})
	s.bus.Subscribe(EventRibbonEntered, func(e Event) {
		s.log.Debug("ribbon entered", "id", e.ID, "emotion", e.EmotionID)
		s.opts.Audio.Chime(e.EmotionID)
	})
}

// Start launches the background goroutines. It returns at once.
func (s *Scene) Start(ctx context.Context) error {
	if s.group != nil {
		return errors.New("scene: already started")
	}
	if s.opts.Source == nil {
		return errors.New("scene: no feed source")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.group, s.ctx = errgroup.WithContext(ctx)

	refresh := s.opts.Config.Feed.Refresh
	s.group.Go(func() error {
		return feed.Refresh(s.ctx, s.opts.Source, &s.snap, refresh, s.log)
	})
	if s.opts.ConfigPath != "" {
		s.group.Go(func() error {
			return config.Watch(s.ctx, s.opts.ConfigPath, config.DefaultDebounce, s.log, s.reload)
		})
	}
	if s.opts.Metrics != nil && s.opts.Config.Metrics.Addr != "" {
		s.group.Go(func() error {
			return s.opts.Metrics.Serve(s.ctx, s.opts.Config.Metrics.Addr, s.log)
		})
	}
	return nil
}

// Preload fills the population once, synchronously, so the first frame
// already has feelings to draw.
func (s *Scene) Preload(ctx context.Context) error {
	list, err := s.opts.Source.Feelings(ctx)
	if err != nil {
		return fmt.Errorf("preload feed: %w", err)
	}
	s.snap.Store(list, time.Now())
	return nil
}

// reload runs on the watcher goroutine; it only touches the live settings.
func (s *Scene) reload(f config.File) {
	if s.opts.Overrides != nil {
		s.opts.Overrides(&f)
	}
	s.live.Store(f.Settings())
	if s.opts.Metrics != nil {
		s.opts.Metrics.Reloaded()
	}
}

// Select builds the renderer once. A GPU failure is final: the CPU backend
// serves the rest of the session.
func (s *Scene) Select(b Backends) error {
	if s.renderer != nil {
		return nil
	}
	set := s.live.Load()
	if set.Backend != render.PreferCPU && b.GPU != nil {
		r, err := b.GPU(s.live, s.log, s.opts.Seed)
		if err == nil {
			s.attach(r)
			return nil
		}
		s.log.Warn("gpu backend unavailable, using cpu for this session", "error", err)
	}
	if b.CPU == nil {
		return errors.New("scene: no cpu backend")
	}
	r, err := b.CPU(s.live, s.log, s.opts.Seed)
	if err != nil {
		return fmt.Errorf("cpu backend: %w", err)
	}
	s.attach(r)
	return nil
}

func (s *Scene) attach(r render.Renderer) {
	s.renderer = r
	s.kind = r.Kind()
	s.bus.Emit(Event{Type: EventBackendSelected, Kind: s.kind})
}

// Run selects a backend and drives surf until it asks to close, ctx ends or
// a background task fails. It locks the calling goroutine to its thread.
func (s *Scene) Run(ctx context.Context, surf Surface, b Backends) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.group == nil {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	if err := s.Select(b); err != nil {
		return err
	}

	for !surf.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return s.Stop()
		default:
		}
		surf.PollEvents()
		if s.Frame(s.opts.Clock()) {
			surf.Swap()
		}
	}
	return nil
}

// Frame draws one frame at now and reports whether anything was drawn.
// Errors are absorbed: the frame is skipped and the loop continues.
func (s *Scene) Frame(now time.Time) bool {
	if s.renderer == nil {
		return false
	}
	feelings := s.snap.Load()
	set := s.live.Load()
	s.opts.Audio.SetEnabled(set.Sound)
	s.updateMix(feelings)

	stats, err := s.renderer.Tick(now, feelings)
	if err != nil {
		if s.opts.Metrics != nil {
			s.opts.Metrics.FrameError()
		}
		s.errLog.Do(func() { s.log.Warn("frame failed", "error", err) })
		return false
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.Observe(stats)
	}
	if stats.Skipped {
		return false
	}

	if stats.Allowed != s.lastAllowed {
		if s.lastAllowed != 0 {
			s.bus.Emit(Event{Type: EventAdmissionChanged, Value: stats.Allowed})
		}
		s.lastAllowed = stats.Allowed
	}
	if len(stats.Entered) > 0 {
		byID := make(map[string]string, len(feelings))
		for _, f := range feelings {
			byID[f.ID] = f.EmotionID
		}
		for _, id := range stats.Entered {
			s.bus.Emit(Event{Type: EventRibbonEntered, ID: id, EmotionID: byID[id]})
		}
	}
	return true
}

func (s *Scene) updateMix(feelings []feeling.Feeling) {
	v := s.snap.Version()
	if v == s.mixVersion || s.opts.Audio == nil {
		return
	}
	s.mixVersion = v
	counts := make(map[string]int)
	for _, f := range feelings {
		counts[f.EmotionID]++
	}
	s.opts.Audio.SetMix(counts)
}

// Stop cancels the background goroutines, waits for them and closes the
// renderer. Later calls return the first result.
func (s *Scene) Stop() error {
	s.stopOnce.Do(func() {
		var errs []error
		if s.cancel != nil {
			s.cancel()
			if err := s.group.Wait(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.renderer != nil {
			if err := s.renderer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close renderer: %w", err))
			}
		}
		if err := s.opts.Audio.Close(); err != nil {
			errs = append(errs, err)
		}
		s.stopErr = errors.Join(errs...)
	})
	return s.stopErr
}
