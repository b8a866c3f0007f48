package detect

import (
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// Identity treats the whole frame as a single face. It has no confidence
// notion, so its detection carries no score.
type Identity struct{}

// NewIdentity wraps an Identity detector with no padding or size filtering.
func NewIdentity() *Detector {
	return NewDetector(Identity{}, Options{})
}

// RawDetect returns one detection spanning the entire frame.
func (Identity) RawDetect(frame gocv.Mat, _ float32) ([]Detection, error) {
	return []Detection{{
		Box: images.NewRect(0, 0, float32(frame.Cols()), float32(frame.Rows())),
	}}, nil
}

// Close is a no-op.
func (Identity) Close() error { return nil }
