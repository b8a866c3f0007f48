package detect

import (
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// Precomputed replays a fixed queue of box groups, one group per call. It
// lets downstream pipeline stages be tested deterministically without real
// inference. Once the queue is exhausted every call returns an empty result.
type Precomputed struct {
	queue [][]images.Rect
}

// NewPrecomputed wraps a Precomputed detector over a copy of the given box
// groups, with no padding or size filtering. Use WrapPrecomputed to combine
// fixtures with non-zero Options.
func NewPrecomputed(groups ...[]images.Rect) *Detector {
	return NewDetector(WrapPrecomputed(groups...), Options{})
}

// WrapPrecomputed builds the raw fixture detector. The groups are copied so
// the detector owns its queue exclusively.
func WrapPrecomputed(groups ...[]images.Rect) *Precomputed {
	queue := make([][]images.Rect, len(groups))
	for i, group := range groups {
		queue[i] = append([]images.Rect(nil), group...)
	}
	return &Precomputed{queue: queue}
}

// RawDetect dequeues and returns the next box group. The fixture boxes have
// no confidence score.
func (p *Precomputed) RawDetect(_ gocv.Mat, _ float32) ([]Detection, error) {
	if len(p.queue) == 0 {
		return nil, nil
	}
	group := p.queue[0]
	p.queue = p.queue[1:]

	dets := make([]Detection, 0, len(group))
	for _, box := range group {
		dets = append(dets, Detection{Box: box})
	}
	return dets, nil
}

// Close is a no-op.
func (p *Precomputed) Close() error { return nil }
