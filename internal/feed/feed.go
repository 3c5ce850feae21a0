// Package feed supplies the feeling population the engine draws. The real
// data layer lives elsewhere; the sources here read a document from disk or
// synthesize a live-looking population.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ribbons/internal/feeling"
)

// Source returns the current unexpired population.
type Source interface {
	Feelings(ctx context.Context) ([]feeling.Feeling, error)
}

// Snapshot is the latest population shared between the refresher and the
// frame thread. Readers get a slice they must not modify.
type Snapshot struct {
	mu      sync.RWMutex
	list    []feeling.Feeling
	at      time.Time
	version uint64
}

func (s *Snapshot) Load() []feeling.Feeling {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}

// Store replaces the population.
func (s *Snapshot) Store(list []feeling.Feeling, at time.Time) {
	s.mu.Lock()
	s.list = list
	s.at = at
	s.version++
	s.mu.Unlock()
}

// Version increments on every Store.
func (s *Snapshot) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Snapshot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.at
}

// Refresh loads src into snap now and then every interval until ctx ends.
// Failed loads keep the previous population.
func Refresh(ctx context.Context, src Source, snap *Snapshot, every time.Duration, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	load := func() {
		list, err := src.Feelings(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("feed refresh failed, keeping last population", "error", err)
			}
			return
		}
		snap.Store(list, time.Now())
	}

	load()
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			load()
		}
	}
}

// Live drops expired feelings from list.
func Live(list []feeling.Feeling, now time.Time) []feeling.Feeling {
	out := list[:0:0]
	for _, f := range list {
		if !f.Expired(now) {
			out = append(out, f)
		}
	}
	return out
}
