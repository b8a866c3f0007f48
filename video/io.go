package video

import (
	"gocv.io/x/gocv"

	"github.com/pkg/errors"
)

// ReadRGB loads an image file as an RGB Mat. The caller owns the Mat.
func ReadRGB(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.Errorf("reading image %s", path)
	}
	gocv.CvtColor(img, &img, gocv.ColorBGRToRGB)
	return img, nil
}

// WriteRGB encodes an RGB Mat to an image file, with the format inferred
// from the extension.
func WriteRGB(path string, frame gocv.Mat) error {
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(frame, &bgr, gocv.ColorRGBToBGR)

	if !gocv.IMWrite(path, bgr) {
		return errors.Errorf("writing image %s", path)
	}
	return nil
}
