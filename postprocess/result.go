// Package postprocess - candidate filtering for raw detector outputs.
package postprocess

import "github.com/facelab/go-faces/images"

// Result represents a single decoded detection candidate, before or after
// Non-Maximum Suppression.
type Result struct {
	// The bounding box of the candidate, in pixel coordinates.
	Box images.Rect
	// The confidence score of the candidate.
	Score float32
	// Eyes holds the left and right eye landmark coordinates packed as
	// (x1, y1, x2, y2). It is the zero value for models without a landmark
	// notion.
	Eyes images.Rect
}
