// Package images - geometric primitives shared by the detection and
// alignment pipelines.
package images

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Point is a 2D point, in pixel or normalized coordinates depending on
// context.
type Point struct {
	X, Y float32
}

// SqDist returns the squared euclidean distance between two points.
//
// The squared distance is sufficient for nearest-point comparisons and
// avoids the square root.
func SqDist(a, b Point) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Rect is a bounding box with float32 corner coordinates. X2 and Y2 are the
// bottom-right corner, following the (x1, y1, x2, y2) convention used by the
// detector outputs.
//
// A Rect is well-formed when X1 < X2 and Y1 < Y2. The type does not enforce
// this: detectors discard malformed candidates during decoding, so downstream
// code only ever sees well-formed boxes.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// NewRect returns the rectangle with the given corner coordinates.
func NewRect(x1, y1, x2, y2 float32) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the surface of the box.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Center returns the geometric center of the box.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// MaxDimLen returns the length of the longer side. Detection size filters
// compare this value against a minimum face size.
func (r Rect) MaxDimLen() float32 {
	return math32.Max(r.Width(), r.Height())
}

// Mult scales the box coordinates by the given width and height factors.
// Used to map normalized 0..1 detector outputs to pixel coordinates.
func (r Rect) Mult(w, h float32) Rect {
	return Rect{X1: r.X1 * w, Y1: r.Y1 * h, X2: r.X2 * w, Y2: r.Y2 * h}
}

// Transpose shifts the box by (dx, dy). Transpose(-dx, -dy) undoes
// Transpose(dx, dy) exactly, which is what the padding-offset correction in
// the detector wrapper relies on.
func (r Rect) Transpose(dx, dy float32) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Square returns the smallest square box sharing r's center and covering r.
// The side is the longer dimension of r.
func (r Rect) Square() Rect {
	side := r.MaxDimLen()
	c := r.Center()
	return Rect{
		X1: c.X - side/2,
		Y1: c.Y - side/2,
		X2: c.X + side/2,
		Y2: c.Y + side/2,
	}
}

// Contains reports whether the point lies inside the box, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// IoU returns the Intersection over Union between two boxes.
//
//	IoU = Area of Intersection / Area of Union
//
// The value lies in [0, 1]: 1 for identical boxes, 0 for disjoint ones. The
// union is computed by inclusion-exclusion to avoid double-counting the
// overlap.
func (r Rect) IoU(o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	return interArea / unionArea
}

// ToImageRect converts the box to an image.Rectangle. Fractional pixels at
// the edges are truncated; the box has already been scaled to frame
// dimensions when this is called, so only sub-pixel precision is lost.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2)).Canon()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f, %.2f), (%.2f, %.2f)", r.X1, r.Y1, r.X2, r.Y2)
}
