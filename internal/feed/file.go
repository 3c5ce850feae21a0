package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/shape"
)

// record is the on-disk form. Timestamps are RFC 3339 strings so JSON and
// YAML documents decode the same way. A missing path is synthesized from
// the id; a missing expiry is CreatedAt plus the lifespan.
type record struct {
	ID        string          `yaml:"id"`
	EmotionID string          `yaml:"emotionId"`
	Color     string          `yaml:"color,omitempty"`
	Path      []feeling.Point `yaml:"path,omitempty,flow"`
	CreatedAt string          `yaml:"createdAt"`
	ExpiresAt string          `yaml:"expiresAt,omitempty"`
}

type document struct {
	Feelings []record `yaml:"feelings"`
}

// FileSource reads a YAML or JSON document of feelings on every call.
type FileSource struct {
	Path string
	Log  *slog.Logger
	Now  func() time.Time
}

func (s *FileSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Feelings parses the document, drops invalid records with one warning and
// filters expired ones.
func (s *FileSource) Feelings(ctx context.Context) ([]feeling.Feeling, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	list, errs := Decode(data)
	if len(errs) > 0 {
		log := s.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("dropped invalid feelings", "path", s.Path, "count", len(errs), "first", errs[0])
	}
	if list == nil && len(errs) == 1 && errors.Is(errs[0], errDocument) {
		return nil, errs[0]
	}
	return Live(list, s.now()), nil
}

var errDocument = errors.New("malformed feed document")

// Decode parses a document. The second result holds one error per dropped
// record, or a single document error.
func Decode(data []byte) ([]feeling.Feeling, []error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// Also accept a bare list.
		var recs []record
		if err2 := yaml.Unmarshal(data, &recs); err2 != nil {
			return nil, []error{fmt.Errorf("%w: %w", errDocument, err)}
		}
		doc.Feelings = recs
	}

	var (
		out  []feeling.Feeling
		errs []error
	)
	for _, r := range doc.Feelings {
		f, err := r.feeling()
		if err == nil {
			err = feeling.Validate(f)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, f)
	}
	return out, errs
}

func (r record) feeling() (feeling.Feeling, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return feeling.Feeling{}, fmt.Errorf("%w %q: createdAt: %w", feeling.ErrInvalid, r.ID, err)
	}
	f := feeling.New(r.ID, r.EmotionID, r.Color, r.Path, created)
	if r.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339Nano, r.ExpiresAt)
		if err != nil {
			return feeling.Feeling{}, fmt.Errorf("%w %q: expiresAt: %w", feeling.ErrInvalid, r.ID, err)
		}
		f.ExpiresAt = exp
	}
	if len(f.Path) == 0 {
		p, err := emotion.Lookup(f.EmotionID)
		if err != nil {
			return feeling.Feeling{}, fmt.Errorf("%w %q: %w", feeling.ErrInvalid, r.ID, err)
		}
		f.Path = shape.Synthesize(p, shape.StartY(f.ID), f.ID)
	}
	return f, nil
}

// Encode renders list as a feed document.
func Encode(list []feeling.Feeling) ([]byte, error) {
	doc := document{Feelings: make([]record, 0, len(list))}
	for _, f := range list {
		doc.Feelings = append(doc.Feelings, record{
			ID:        f.ID,
			EmotionID: f.EmotionID,
			Color:     f.Color,
			Path:      f.Path,
			CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339Nano),
			ExpiresAt: f.ExpiresAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return yaml.Marshal(doc)
}

// WriteFile writes list to path as YAML.
func WriteFile(path string, list []feeling.Feeling) error {
	data, err := Encode(list)
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
