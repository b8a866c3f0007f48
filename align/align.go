// Package align rotates face crops so that the eyes end up on a horizontal
// line, which is what downstream classification models are trained on.
//
// Eye centers come either from a detector that produces landmarks directly
// or from the pigo pupil localization cascade wrapped by EyeDetector.
package align

import (
	"image"
	"image/color"
	"log"
	"os"

	"github.com/chewxy/math32"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// Pupil seeding relative to the face box, tuned for the pigo puploc cascade.
const (
	eyeRowShift  = 0.085
	eyeColShift  = 0.185
	eyeScale     = 0.4
	eyePerturbs = 50
)

// EyeDetector localizes pupil centers inside a face bounding box using the
// pigo pupil localization cascade.
type EyeDetector struct {
	plc *pigo.PuplocCascade
}

// NewEyeDetector loads a puploc cascade file.
func NewEyeDetector(cascadePath string) (*EyeDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading puploc cascade")
	}
	plc, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, errors.Wrap(err, "unpacking puploc cascade")
	}
	log.Printf("✅ Eye detector initialized (cascade: %s)", cascadePath)
	return &EyeDetector{plc: plc}, nil
}

// EyeCenters localizes the left and right eye inside a face box. The frame
// is expected in RGB; left and right refer to the image, so left.X < right.X.
// ok is false when either pupil could not be localized.
func (e *EyeDetector) EyeCenters(frame gocv.Mat, box images.Rect) (left, right images.Point, ok bool, err error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorRGBToGray)

	pixels, err := gray.DataPtrUint8()
	if err != nil {
		return left, right, false, errors.Wrap(err, "accessing grayscale pixels")
	}
	params := pigo.ImageParams{
		Pixels: pixels,
		Rows:   gray.Rows(),
		Cols:   gray.Cols(),
		Dim:    gray.Cols(),
	}

	center := box.Center()
	scale := box.MaxDimLen()

	left, ok = e.locate(params, center, scale, -1)
	if !ok {
		return left, right, false, nil
	}
	right, ok = e.locate(params, center, scale, +1)
	if !ok {
		return left, right, false, nil
	}
	return left, right, true, nil
}

// locate runs the puploc cascade for one eye. side is -1 for the image-left
// eye and +1 for the image-right one.
func (e *EyeDetector) locate(params pigo.ImageParams, center images.Point, scale float32, side float32) (images.Point, bool) {
	seed := &pigo.Puploc{
		Row:      int(center.Y - eyeRowShift*scale),
		Col:      int(center.X + side*eyeColShift*scale),
		Scale:    eyeScale * scale,
		Perturbs: eyePerturbs,
	}
	res := e.plc.RunDetector(*seed, params, 0.0, false)
	if res == nil || res.Row <= 0 || res.Col <= 0 {
		return images.Point{}, false
	}
	return images.Point{X: float32(res.Col), Y: float32(res.Row)}, true
}

// RotationAngle returns the angle, in degrees, of the line going from the
// left eye to the right one. A perfectly vertical eye line maps to +/-90
// depending on its direction.
func RotationAngle(left, right images.Point) float64 {
	dx := right.X - left.X
	dy := right.Y - left.Y
	if dx == 0 {
		if dy > 0 {
			return 90
		}
		return -90
	}
	return float64(math32.Atan(dy/dx) * 180 / math32.Pi)
}

// Align rotates the frame around the eye midpoint so the eye line becomes
// horizontal and crops the face bounding box from the rotated frame. The
// returned Mat has the box dimensions and is owned by the caller; the
// returned points are the eye centers in crop coordinates.
func Align(frame gocv.Mat, box images.Rect, left, right images.Point) (gocv.Mat, images.Point, images.Point, error) {
	angle := RotationAngle(left, right)
	mid := image.Pt(
		int((left.X+right.X)/2),
		int((left.Y+right.Y)/2),
	)

	m := gocv.GetRotationMatrix2D(mid, angle, 1)
	defer m.Close()

	// Fold the crop translation into the affine transform so a single warp
	// produces the aligned crop directly.
	m.SetDoubleAt(0, 2, m.GetDoubleAt(0, 2)-float64(box.X1))
	m.SetDoubleAt(1, 2, m.GetDoubleAt(1, 2)-float64(box.Y1))

	w := int(box.Width())
	h := int(box.Height())
	if w <= 0 || h <= 0 {
		return gocv.Mat{}, images.Point{}, images.Point{}, errors.Errorf("degenerate face box %s", box)
	}

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(frame, &dst, m, image.Pt(w, h),
		gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})

	return dst, applyAffine(m, left), applyAffine(m, right), nil
}

// Aligner combines eye localization and rotation into a single operation
// for detectors that do not produce eye landmarks themselves.
type Aligner struct {
	eyes *EyeDetector
}

// NewAligner loads the pupil localization cascade backing the aligner.
func NewAligner(puplocPath string) (*Aligner, error) {
	eyes, err := NewEyeDetector(puplocPath)
	if err != nil {
		return nil, err
	}
	return &Aligner{eyes: eyes}, nil
}

// AlignFace localizes the eyes inside a face box and returns the eye-level
// crop together with the eye centers in crop coordinates. ok is false when
// the eyes could not be localized; the frame stays untouched in that case.
func (a *Aligner) AlignFace(frame gocv.Mat, box images.Rect) (gocv.Mat, images.Point, images.Point, bool, error) {
	left, right, ok, err := a.eyes.EyeCenters(frame, box)
	if err != nil || !ok {
		return gocv.Mat{}, images.Point{}, images.Point{}, false, err
	}
	crop, l, r, err := Align(frame, box, left, right)
	if err != nil {
		return gocv.Mat{}, images.Point{}, images.Point{}, false, err
	}
	return crop, l, r, true, nil
}

// applyAffine maps a point through a 2x3 affine matrix.
func applyAffine(m gocv.Mat, p images.Point) images.Point {
	x := float64(p.X)
	y := float64(p.Y)
	return images.Point{
		X: float32(m.GetDoubleAt(0, 0)*x + m.GetDoubleAt(0, 1)*y + m.GetDoubleAt(0, 2)),
		Y: float32(m.GetDoubleAt(1, 0)*x + m.GetDoubleAt(1, 1)*y + m.GetDoubleAt(1, 2)),
	}
}
