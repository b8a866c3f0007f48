// Package detect - face detection on top of external inference runtimes.
//
// Concrete detectors implement RawDetector and only turn one frame into raw
// box candidates. The shared pre/post-processing (black padding, minimal face
// size filtering, padding offset correction) lives in the Detector wrapper,
// together with the face selection policies.
package detect

import (
	"fmt"
	"image/color"
	"log"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// Detection is a detected face: a bounding box with an optional confidence
// score and optional eye landmarks.
type Detection struct {
	// Box is the face bounding box in frame pixel coordinates.
	Box images.Rect
	// Confidence is the detection score. Only meaningful when HasConfidence
	// is set; some detectors (Identity, Precomputed) have no score notion.
	Confidence    float32
	HasConfidence bool
	// Eyes packs the left and right eye centers as (x1, y1, x2, y2). Only
	// meaningful when HasEyes is set.
	Eyes    images.Rect
	HasEyes bool
}

func (d Detection) String() string {
	if !d.HasConfidence {
		return fmt.Sprintf("Face %s", d.Box)
	}
	return fmt.Sprintf("Face (confidence %f): %s", d.Confidence, d.Box)
}

// RawDetector turns one frame into raw detection candidates. Implementations
// receive the (possibly padded) frame and the confidence threshold; they do
// not filter by size or correct padding offsets.
type RawDetector interface {
	RawDetect(frame gocv.Mat, minConf float32) ([]Detection, error)
	Close() error
}

// Options configures the shared detection pre/post-processing.
type Options struct {
	// MinConf is the minimal detection confidence for raw candidates.
	MinConf float32
	// MinSizePx is the minimal length of a face box's longer side, in pixels.
	MinSizePx float32
	// MinSizePrct is the minimal face size relative to the smaller frame
	// dimension. The effective minimum is max(MinSizePx, MinSizePrct*minDim).
	MinSizePrct float32
	// PaddPrct pads the frame with a black border of PaddPrct*width and
	// PaddPrct*height on each side before detection, to avoid detector edge
	// artifacts. Returned boxes are shifted back to unpadded coordinates.
	PaddPrct float32
	// Verbose logs each detection and, when DebugDir is set, writes the
	// annotated frame and face crop thumbnails there. Debug aid only.
	Verbose bool
	// DebugDir receives verbose rendering output.
	DebugDir string
}

// Detector wraps a RawDetector with the shared pre/post-processing contract.
type Detector struct {
	raw  RawDetector
	opts Options
}

// NewDetector wraps a raw detector. The zero Options disable padding and
// size filtering, which is what the test detectors use.
func NewDetector(raw RawDetector, opts Options) *Detector {
	return &Detector{raw: raw, opts: opts}
}

// Close releases the underlying detector resources.
func (d *Detector) Close() error {
	return d.raw.Close()
}

// Detect locates faces in an RGB frame.
//
// An empty result is a normal outcome, not an error. Returned boxes are in
// the coordinates of the original, unpadded frame.
func (d *Detector) Detect(frame gocv.Mat) ([]Detection, error) {
	tmp := frame
	var xoff, yoff int

	if d.opts.PaddPrct > 0 {
		padded, py, px := blackPadd(frame, d.opts.PaddPrct)
		defer padded.Close()
		tmp, yoff, xoff = padded, py, px
	}

	dets, err := d.raw.RawDetect(tmp, d.opts.MinConf)
	if err != nil {
		return nil, err
	}

	// Small faces hurt downstream classification; drop boxes whose longer
	// side is below the absolute or relative minimum.
	minFrameDim := frame.Rows()
	if frame.Cols() < minFrameDim {
		minFrameDim = frame.Cols()
	}
	minFaceSize := math32.Max(d.opts.MinSizePx, d.opts.MinSizePrct*float32(minFrameDim))
	if minFaceSize > 0 {
		kept := dets[:0]
		for _, det := range dets {
			if det.Box.MaxDimLen() >= minFaceSize {
				kept = append(kept, det)
			}
		}
		dets = kept
	}

	if d.opts.PaddPrct > 0 {
		for i := range dets {
			dets[i].Box = dets[i].Box.Transpose(-float32(xoff), -float32(yoff))
			if dets[i].HasEyes {
				dets[i].Eyes = dets[i].Eyes.Transpose(-float32(xoff), -float32(yoff))
			}
		}
	}

	if d.opts.Verbose {
		for _, det := range dets {
			log.Printf("detect: %s", det)
		}
		if d.opts.DebugDir != "" {
			if err := dumpDebugFrames(frame, dets, d.opts.DebugDir); err != nil {
				log.Printf("detect: debug rendering failed: %v", err)
			}
		}
	}

	return dets, nil
}

// MostCentralFace returns the detected face closest to the frame center.
// Only faces whose box contains the center qualify; ok is false when none
// do. Useful for preprocessing face datasets with several faces per image.
func (d *Detector) MostCentralFace(frame gocv.Mat) (Detection, bool, error) {
	dets, err := d.Detect(frame)
	if err != nil {
		return Detection{}, false, err
	}

	center := images.Point{X: float32(frame.Cols()) / 2, Y: float32(frame.Rows()) / 2}

	var best Detection
	bestDist := float32(math32.MaxFloat32)
	found := false
	for _, det := range dets {
		if !det.Box.Contains(center) {
			continue
		}
		// Strict comparison keeps the first of tied candidates.
		if dist := images.SqDist(det.Box.Center(), center); dist < bestDist {
			best, bestDist, found = det, dist, true
		}
	}
	return best, found, nil
}

// ClosestFace returns the detected face with the highest IoU against a
// reference box, provided that IoU reaches minIoU; ok is false otherwise.
// With squarify set, both the reference and the candidates are squared
// before comparison, which makes boxes from differently-shaped detectors
// comparable.
func (d *Detector) ClosestFace(frame gocv.Mat, ref images.Rect, minIoU float32, squarify bool) (Detection, bool, error) {
	dets, err := d.Detect(frame)
	if err != nil {
		return Detection{}, false, err
	}
	if len(dets) == 0 {
		return Detection{}, false, nil
	}

	if squarify {
		ref = ref.Square()
	}

	best := dets[0]
	bestIoU := float32(-1)
	for _, det := range dets {
		box := det.Box
		if squarify {
			box = box.Square()
		}
		if iou := ref.IoU(box); iou > bestIoU {
			best, bestIoU = det, iou
		}
	}
	if bestIoU < minIoU {
		return Detection{}, false, nil
	}
	return best, true, nil
}

// blackPadd copies the frame into a larger black canvas, returning the
// padded frame and the per-axis offsets. The caller owns the returned Mat.
func blackPadd(frame gocv.Mat, paddPrct float32) (gocv.Mat, int, int) {
	yoff := int(float32(frame.Rows()) * paddPrct)
	xoff := int(float32(frame.Cols()) * paddPrct)

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(frame, &padded, yoff, yoff, xoff, xoff,
		gocv.BorderConstant, color.RGBA{})
	return padded, yoff, xoff
}
