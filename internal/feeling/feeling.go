// Package feeling defines the records supplied to the ribbon engine by the
// data layer. The engine only reads them.
package feeling

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"ribbons/internal/emotion"
)

// Lifespan is the fixed distance between CreatedAt and ExpiresAt.
const Lifespan = 7 * 24 * time.Hour

// Path geometry of the current generation.
const (
	PathSamples = 32
	MinY        = 0.08
	MaxY        = 0.92
)

// Point is one normalized path sample.
type Point struct {
	X float64 `json:"x" yaml:"x" validate:"gte=0,lt=1"`
	Y float64 `json:"y" yaml:"y" validate:"gte=0,lte=1"`
}

// Feeling is one contributed emotion.
type Feeling struct {
	ID        string    `json:"id" yaml:"id" validate:"required,max=128"`
	EmotionID string    `json:"emotionId" yaml:"emotionId" validate:"required"`
	Color     string    `json:"color" yaml:"color" validate:"omitempty,hexcolor"`
	Path      []Point   `json:"path" yaml:"path" validate:"min=2,max=64,dive"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt" validate:"required"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt" validate:"required,gtfield=CreatedAt"`
}

// ErrInvalid wraps every boundary validation failure.
var ErrInvalid = errors.New("invalid feeling")

var validate = validator.New()

// New builds a feeling whose ExpiresAt honours Lifespan.
func New(id, emotionID, color string, path []Point, createdAt time.Time) Feeling {
	return Feeling{
		ID:        id,
		EmotionID: emotionID,
		Color:     color,
		Path:      path,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(Lifespan),
	}
}

// Validate checks f at the data boundary.
func Validate(f Feeling) error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalid, f.ID, err)
	}
	if _, err := emotion.Lookup(f.EmotionID); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, f.ID, err)
	}
	if got := f.ExpiresAt.Sub(f.CreatedAt); got != Lifespan {
		return fmt.Errorf("%w %q: lifespan %s, want %s", ErrInvalid, f.ID, got, Lifespan)
	}
	return nil
}

// Expired reports whether f is past ExpiresAt at now.
func (f Feeling) Expired(now time.Time) bool {
	return !now.Before(f.ExpiresAt)
}

// Ys returns the finite y values of the path, in order.
func (f Feeling) Ys() []float64 {
	ys := make([]float64, 0, len(f.Path))
	for _, p := range f.Path {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			continue
		}
		ys = append(ys, p.Y)
	}
	return ys
}
