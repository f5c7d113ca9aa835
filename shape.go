package cvatconv

// The canonical annotation representation shared by all decoders.

import (
	"errors"
	"fmt"
)

// ShapeType discriminates the shape variants.
type ShapeType string

// The supported shape variants.
const (
	Rectangle ShapeType = "rectangle"
	Polygon   ShapeType = "polygon"
)

// sourceManual is the provenance recorded for every converted shape.
const sourceManual = "manual"

// ErrInvalidShape is returned when the points of a shape do not satisfy its variant.
var ErrInvalidShape = errors.New("invalid shape")

// Shape is a single annotated region attached to one frame.
type Shape struct {
	Type       ShapeType     `json:"type"`
	Frame      int           `json:"frame"`
	Label      string        `json:"label"`
	Points     []int         `json:"points"` // Flattened x, y pairs in pixels.
	Occluded   bool          `json:"occluded"`
	Outside    bool          `json:"outside"`
	ZOrder     int           `json:"z_order"`
	Group      int           `json:"group"`
	Source     string        `json:"source"`
	Attributes []interface{} `json:"attributes"` // Must not be nil as that becomes JSON null.
	Elements   []interface{} `json:"elements"`
}

// newShape returns a shape with the default presentation attributes.
func newShape(t ShapeType, frame int, label string, points []int) Shape {
	return Shape{
		Type:       t,
		Frame:      frame,
		Label:      label,
		Points:     points,
		Source:     sourceManual,
		Attributes: []interface{}{},
		Elements:   []interface{}{},
	}
}

// NewRectangle returns a rectangle with top-left (x1, y1) and bottom-right (x2, y2).
func NewRectangle(frame int, label string, x1, y1, x2, y2 int) Shape {
	return newShape(Rectangle, frame, label, []int{x1, y1, x2, y2})
}

// NewPolygon returns a polygon with the flattened vertex list points. At least three vertices
// are required.
func NewPolygon(frame int, label string, points []int) (Shape, error) {
	s := newShape(Polygon, frame, label, points)
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Validate checks the number of points against the shape type.
func (s Shape) Validate() error {
	n := len(s.Points)
	switch {
	case n%2 != 0:
		return fmt.Errorf("%w: odd number of coordinates (%d)", ErrInvalidShape, n)
	case s.Type == Rectangle && n != 4:
		return fmt.Errorf("%w: rectangle needs 4 coordinates, got %d", ErrInvalidShape, n)
	case s.Type == Polygon && n < 6:
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidShape, n/2)
	case s.Type != Rectangle && s.Type != Polygon:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidShape, s.Type)
	}
	return nil
}

// AnnotationSet is the annotation dump of one task.
type AnnotationSet struct {
	Shapes  []Shape       `json:"shapes"`
	Version int           `json:"version"`
	Tags    []interface{} `json:"tags"`
	Tracks  []interface{} `json:"tracks"`
}

// NewAnnotationSet returns an empty set ready to collect shapes.
func NewAnnotationSet() *AnnotationSet {
	return &AnnotationSet{
		Shapes: make([]Shape, 0, 64),
		Tags:   []interface{}{},
		Tracks: []interface{}{},
	}
}

// Add appends shapes to the set.
func (a *AnnotationSet) Add(shapes ...Shape) {
	a.Shapes = append(a.Shapes, shapes...)
}

// MaxFrame returns the largest frame index referenced by any shape, or -1 for an empty set.
func (a *AnnotationSet) MaxFrame() int {
	max := -1
	for _, s := range a.Shapes {
		if s.Frame > max {
			max = s.Frame
		}
	}
	return max
}
