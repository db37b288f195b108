// Package landmarks defines the hand-landmark data model and the
// geometric feature extraction used by the grip classifier.
//
// Landmark indices follow the MediaPipe hand-landmark convention:
// 21 points per hand, wrist at index 0, fingertips at 4/8/12/16/20.
// Coordinates are normalized image-relative values (0.0-1.0 per axis,
// origin top-left), as produced by the upstream tracker.
package landmarks

import (
	"errors"
	"fmt"
)

// MediaPipe hand landmark indices.
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexMCP     = 5
	IndexTip     = 8
	MiddleMCP    = 9
	MiddleTip    = 12
	RingMCP      = 13
	RingTip      = 16
	PinkyMCP     = 17
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidInput marks a landmark set that cannot enter feature
// extraction: wrong point count, malformed point, or an input shape
// outside the accepted variants.
var ErrInvalidInput = errors.New("landmarks: invalid input")

// Point is a single tracked hand point in 2-D normalized coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hand is one ordered set of 21 landmark points.
type Hand []Point

// Provider is implemented by tracker-side types that expose an ordered
// landmark collection without being a raw coordinate list.
type Provider interface {
	LandmarkPoints() []Point
}

// Validate reports whether the hand is usable for feature extraction.
func (h Hand) Validate() error {
	if len(h) != NumLandmarks {
		return fmt.Errorf("%w: got %d points, want %d", ErrInvalidInput, len(h), NumLandmarks)
	}
	return nil
}

// Coerce normalizes the accepted input variants to a canonical Hand.
// Accepted shapes: Hand, []Point, a [][]float64 pair list, or any
// value implementing Provider. Everything else is ErrInvalidInput.
// Coercion happens at the boundary so the core only ever sees Hand.
func Coerce(v any) (Hand, error) {
	switch in := v.(type) {
	case Hand:
		return in, in.Validate()
	case []Point:
		h := Hand(in)
		return h, h.Validate()
	case [][]float64:
		return FromPairs(in)
	case Provider:
		h := Hand(in.LandmarkPoints())
		return h, h.Validate()
	case nil:
		return nil, fmt.Errorf("%w: nil landmarks", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unsupported landmark shape %T", ErrInvalidInput, v)
	}
}

// FromPairs builds a Hand from a raw [[x,y], ...] list. Points with
// more than two coordinates are truncated to x,y (the tracker also
// emits z, which the 2-D pipeline ignores); points with fewer are
// invalid.
func FromPairs(pairs [][]float64) (Hand, error) {
	if len(pairs) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d points, want %d", ErrInvalidInput, len(pairs), NumLandmarks)
	}
	h := make(Hand, NumLandmarks)
	for i, p := range pairs {
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: point %d has %d coordinates", ErrInvalidInput, i, len(p))
		}
		h[i] = Point{X: p[0], Y: p[1]}
	}
	return h, nil
}
