package detect

import (
	"log"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// Cascade scan parameters, following the reference pigo examples.
const (
	pigoMinSize     = 20
	pigoShiftFactor = 0.1
	pigoScaleFactor = 1.1
	pigoClusterIoU  = 0.2
)

// Pigo is a pure-Go face detector backed by the pigo pixel intensity
// comparison cascade. It needs no native inference runtime, at the price of
// lower accuracy than the CNN detectors.
type Pigo struct {
	classifier *pigo.Pigo
}

// PigoConfig configures the cascade file.
type PigoConfig struct {
	// CascadePath is the binary facefinder cascade.
	CascadePath string
}

// DefaultPigoOptions returns the detection options tuned for this cascade.
// The cascade quality score is unbounded; 5 rejects most false positives.
func DefaultPigoOptions() Options {
	return Options{
		MinConf:   5,
		MinSizePx: 30,
	}
}

// NewPigo loads the facefinder cascade and wraps it with the given options.
func NewPigo(config PigoConfig, opts Options) (*Detector, error) {
	data, err := os.ReadFile(config.CascadePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading facefinder cascade")
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "unpacking facefinder cascade")
	}

	log.Printf("✅ Pigo face detector initialized with cascade: %s", config.CascadePath)

	return NewDetector(&Pigo{classifier: classifier}, opts), nil
}

// RawDetect scans the grayscale frame over the cascade scale pyramid and
// clusters the overlapping candidates.
func (d *Pigo) RawDetect(frame gocv.Mat, minConf float32) ([]Detection, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorRGBToGray)

	pixels, err := gray.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "accessing grayscale pixels")
	}

	rows := gray.Rows()
	cols := gray.Cols()
	maxSize := rows
	if cols < maxSize {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     pigoMinSize,
		MaxSize:     maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	faces := d.classifier.RunCascade(params, 0.0)
	faces = d.classifier.ClusterDetections(faces, pigoClusterIoU)

	var dets []Detection
	for _, face := range faces {
		if face.Q < minConf {
			continue
		}
		half := float32(face.Scale) / 2
		row := float32(face.Row)
		col := float32(face.Col)
		dets = append(dets, Detection{
			Box:           images.NewRect(col-half, row-half, col+half, row+half),
			Confidence:    face.Q,
			HasConfidence: true,
		})
	}
	return dets, nil
}

// Close is a no-op; the cascade holds no native resources.
func (d *Pigo) Close() error { return nil }
