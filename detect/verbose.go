package detect

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"gocv.io/x/gocv"
)

// thumbnailSide bounds the debug crop thumbnails.
const thumbnailSide = 128

// DrawDetections draws face boxes (and eye centers when present) onto an
// RGB frame, in place.
func DrawDetections(frame *gocv.Mat, dets []Detection) {
	green := color.RGBA{G: 255}
	red := color.RGBA{R: 255}
	for _, det := range dets {
		gocv.Rectangle(frame, det.Box.ToImageRect(), green, 2)
		if det.HasEyes {
			gocv.Circle(frame, image.Pt(int(det.Eyes.X1), int(det.Eyes.Y1)), 2, red, -1)
			gocv.Circle(frame, image.Pt(int(det.Eyes.X2), int(det.Eyes.Y2)), 2, red, -1)
		}
	}
}

// dumpDebugFrames writes the annotated frame and per-face crop thumbnails
// into dir. Files are overwritten on each call; this is a debug aid, not
// part of the detection contract.
func dumpDebugFrames(frame gocv.Mat, dets []Detection, dir string) error {
	annotated := frame.Clone()
	defer annotated.Close()

	DrawDetections(&annotated, dets)

	// Frames are RGB; ToImage expects OpenCV's BGR ordering.
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(annotated, &bgr, gocv.ColorRGBToBGR)

	img, err := bgr.ToImage()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, filepath.Join(dir, "frame.png")); err != nil {
		return err
	}

	frameBounds := img.Bounds()
	for i, det := range dets {
		crop := det.Box.ToImageRect().Intersect(frameBounds)
		if crop.Empty() {
			continue
		}
		thumb := resize.Thumbnail(thumbnailSide, thumbnailSide, imaging.Crop(img, crop), resize.Lanczos3)
		name := filepath.Join(dir, fmt.Sprintf("face-%d.png", i))
		if err := imaging.Save(thumb, name); err != nil {
			return err
		}
	}
	return nil
}
