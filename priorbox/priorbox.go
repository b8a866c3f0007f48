// Package priorbox - anchor box generation and decoding for the
// libfacedetection (YuNet) ONNX model.
package priorbox

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/facelab/go-faces/images"
	"github.com/facelab/go-faces/postprocess"
)

// Anchor layout parameters of the libfacedetection model. One anchor set per
// feature map level.
var (
	minSizes  = [][]float32{{10, 16, 24}, {32, 48}, {64, 96}, {128, 192, 256}}
	steps     = []float32{8, 16, 32, 64}
	variances = [2]float32{0.1, 0.2}
)

// locStride is the number of regression values per anchor: 4 box offsets
// plus 5 landmark points.
const locStride = 14

type prior struct {
	cx, cy, w, h float32
}

// PriorBox holds the precomputed anchor set for one (input, output) shape
// pair. Building it is O(input area); Decode reuses it across frames of the
// same size.
type PriorBox struct {
	inW, inH   int
	outW, outH int
	priors     []prior
}

// New generates the anchor set for the given input and output shapes.
func New(inputW, inputH, outputW, outputH int) *PriorBox {
	pb := &PriorBox{inW: inputW, inH: inputH, outW: outputW, outH: outputH}
	pb.generate()
	return pb
}

// generate enumerates anchors over the model's four detection feature maps.
// Feature map sizes follow the model's downsampling ladder: the input is
// halved twice to reach the second level, then halved once per level.
func (pb *PriorBox) generate() {
	fmH := ((pb.inH + 1) / 2) / 2
	fmW := ((pb.inW + 1) / 2) / 2

	featureMaps := make([][2]int, 0, len(minSizes))
	for range minSizes {
		fmH /= 2
		fmW /= 2
		featureMaps = append(featureMaps, [2]int{fmH, fmW})
	}

	inW := float32(pb.inW)
	inH := float32(pb.inH)

	for k, fm := range featureMaps {
		for i := 0; i < fm[0]; i++ {
			for j := 0; j < fm[1]; j++ {
				for _, ms := range minSizes[k] {
					pb.priors = append(pb.priors, prior{
						cx: (float32(j) + 0.5) * steps[k] / inW,
						cy: (float32(i) + 0.5) * steps[k] / inH,
						w:  ms / inW,
						h:  ms / inH,
					})
				}
			}
		}
	}
}

// NumPriors returns the number of anchors, which is also the expected
// candidate count of every model output tensor.
func (pb *PriorBox) NumPriors() int {
	return len(pb.priors)
}

// Decode converts the model's raw regression (loc), classification (conf)
// and detection-quality (iou) tensors into box candidates in output pixel
// space, keeping only candidates scoring at least minConf.
//
// Arguments:
//   - loc: 14 regression values per anchor (box offsets + 5 landmarks).
//   - conf: 2 classification scores per anchor (background, face).
//   - iou: 1 quality score per anchor, clamped to [0, 1] before use.
//   - minConf: Minimal combined score sqrt(cls*iou) for a candidate to be kept.
//
// Returns:
//   - Kept candidates with box, combined score and eye landmarks.
//   - An error when a tensor is smaller than the anchor set requires.
func (pb *PriorBox) Decode(loc, conf, iou []float32, minConf float32) ([]postprocess.Result, error) {
	n := len(pb.priors)
	if len(loc) < n*locStride {
		return nil, errors.Errorf("loc tensor holds %d floats, needs %d", len(loc), n*locStride)
	}
	if len(conf) < n*2 {
		return nil, errors.Errorf("conf tensor holds %d floats, needs %d", len(conf), n*2)
	}
	if len(iou) < n {
		return nil, errors.Errorf("iou tensor holds %d floats, needs %d", len(iou), n)
	}

	outW := float32(pb.outW)
	outH := float32(pb.outH)

	var results []postprocess.Result
	for i := 0; i < n; i++ {
		clsScore := conf[i*2+1]
		iouScore := iou[i]
		if iouScore < 0 {
			iouScore = 0
		} else if iouScore > 1 {
			iouScore = 1
		}
		score := math32.Sqrt(clsScore * iouScore)
		if score < minConf {
			continue
		}

		p := pb.priors[i]
		l := loc[i*locStride : (i+1)*locStride]

		cx := (p.cx + l[0]*variances[0]*p.w) * outW
		cy := (p.cy + l[1]*variances[0]*p.h) * outH
		w := p.w * math32.Exp(l[2]*variances[0]) * outW
		h := p.h * math32.Exp(l[3]*variances[1]) * outH

		x1 := cx - w/2
		y1 := cy - h/2

		// The first two landmark points are the eye centers.
		rightEyeX := (p.cx + l[4]*variances[0]*p.w) * outW
		rightEyeY := (p.cy + l[5]*variances[0]*p.h) * outH
		leftEyeX := (p.cx + l[6]*variances[0]*p.w) * outW
		leftEyeY := (p.cy + l[7]*variances[0]*p.h) * outH

		results = append(results, postprocess.Result{
			Box:   images.NewRect(x1, y1, x1+w, y1+h),
			Score: score,
			Eyes:  images.NewRect(rightEyeX, rightEyeY, leftEyeX, leftEyeY),
		})
	}

	return results, nil
}
