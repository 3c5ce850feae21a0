// Package emotion holds the fixed table of emotion profiles that shape
// and colour every ribbon.
package emotion

import (
	"errors"
	"fmt"
)

// ErrUnknownEmotion is returned by Lookup for ids outside the table.
var ErrUnknownEmotion = errors.New("unknown emotion")

// Range is an inclusive integer range.
type Range struct {
	Min, Max int
}

// Profile describes how one emotion looks and moves.
type Profile struct {
	ID    string
	Label string
	Color RGB

	// ControlPoints bounds the number of spline control points drawn for a shape.
	ControlPoints Range
	// Amplitude is the maximum vertical deviation of a control point.
	Amplitude float64
	// FlowSpeed scales horizontal travel relative to the other emotions.
	FlowSpeed float64

	// RootHz is the drone root used by the ambience player.
	RootHz float64
}

const (
	Calm    = "calm"
	Joy     = "joy"
	Sadness = "sadness"
	Anger   = "anger"
	Anxiety = "anxiety"
	Love    = "love"
	Hope    = "hope"
	Awe     = "awe"
)

var profiles = [...]Profile{
	{ID: Calm, Label: "Calm", Color: mustRGB("#7fb7be"), ControlPoints: Range{3, 4}, Amplitude: 0.18, FlowSpeed: 0.8, RootHz: 130.81},
	{ID: Joy, Label: "Joy", Color: mustRGB("#ffc857"), ControlPoints: Range{5, 7}, Amplitude: 0.26, FlowSpeed: 1.3, RootHz: 196.00},
	{ID: Sadness, Label: "Sadness", Color: mustRGB("#5b7db1"), ControlPoints: Range{3, 5}, Amplitude: 0.12, FlowSpeed: 0.6, RootHz: 110.00},
	{ID: Anger, Label: "Anger", Color: mustRGB("#e4572e"), ControlPoints: Range{7, 10}, Amplitude: 0.32, FlowSpeed: 1.5, RootHz: 98.00},
	{ID: Anxiety, Label: "Anxiety", Color: mustRGB("#b084cc"), ControlPoints: Range{8, 12}, Amplitude: 0.22, FlowSpeed: 1.4, RootHz: 138.59},
	{ID: Love, Label: "Love", Color: mustRGB("#f06c9b"), ControlPoints: Range{4, 6}, Amplitude: 0.24, FlowSpeed: 1.0, RootHz: 174.61},
	{ID: Hope, Label: "Hope", Color: mustRGB("#9bc53d"), ControlPoints: Range{4, 5}, Amplitude: 0.20, FlowSpeed: 1.1, RootHz: 164.81},
	{ID: Awe, Label: "Awe", Color: mustRGB("#4ecdc4"), ControlPoints: Range{5, 8}, Amplitude: 0.30, FlowSpeed: 0.9, RootHz: 146.83},
}

// All returns every profile in table order.
func All() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles[:])
	return out
}

// IDs returns every profile id in table order.
func IDs() []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

// Lookup returns the profile for id.
func Lookup(id string) (Profile, error) {
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownEmotion, id)
}

// Index returns the table position of id, or -1.
func Index(id string) int {
	for i, p := range profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}
