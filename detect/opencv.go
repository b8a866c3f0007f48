package detect

import (
	"fmt"
	"image"
	"log"
	"os"

	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/images"
)

// OpenCV CNN face detector input contract. The network was trained on
// 300x300 crops; other input sizes degrade accuracy.
var (
	ocvCnnInputSize = image.Pt(300, 300)
	ocvCnnMean      = gocv.NewScalar(104, 117, 123, 0)
)

// OcvCnn is the OpenCV DNN face detector, backed by the frozen TensorFlow
// graph pair shipped with OpenCV.
type OcvCnn struct {
	net gocv.Net
}

// OcvCnnConfig configures the OpenCV CNN detector model files.
type OcvCnnConfig struct {
	// ModelPath is the frozen-graph file (opencv_face_detector_uint8.pb).
	ModelPath string
	// ConfigPath is the graph text description (opencv_face_detector.pbtxt).
	ConfigPath string
}

// DefaultOcvCnnOptions returns the detection options tuned for this model.
func DefaultOcvCnnOptions() Options {
	return Options{
		MinConf:   0.65,
		MinSizePx: 30,
		PaddPrct:  0.15,
	}
}

// NewOcvCnn loads the OpenCV CNN face detector and wraps it with the given
// options. A missing or unreadable model is fatal: construction fails.
func NewOcvCnn(config OcvCnnConfig, opts Options) (*Detector, error) {
	for _, path := range []string{config.ModelPath, config.ConfigPath} {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("model file not found: %s: %w", path, err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("model file is empty: %s", path)
		}
	}

	net := gocv.ReadNet(config.ModelPath, config.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load face detector model: %s", config.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Printf("✅ OpenCV CNN face detector initialized with model: %s", config.ModelPath)

	return NewDetector(&OcvCnn{net: net}, opts), nil
}

// RawDetect runs the CNN over the frame and decodes its output tensor.
//
// The output enumerates candidates already sorted by descending confidence,
// which is an upstream model contract: decoding stops at the first candidate
// below minConf. The contract is verified while scanning and a violation is
// reported as an error rather than silently mis-truncating.
func (d *OcvCnn) RawDetect(frame gocv.Mat, minConf float32) ([]Detection, error) {
	blob := gocv.BlobFromImage(frame, 1.0, ocvCnnInputSize, ocvCnnMean, true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	// The output shape is [1, 1, N, 7]; flatten to a single row of N
	// 7-float records: (image id, label, confidence, x1, y1, x2, y2).
	flat := prob.Reshape(1, 1)
	defer flat.Close()

	w := float32(frame.Cols())
	h := float32(frame.Rows())

	var dets []Detection
	prev := float32(1)
	for i := 0; i < flat.Cols()/7; i++ {
		confidence := flat.GetFloatAt(0, i*7+2)
		if confidence > prev {
			return nil, fmt.Errorf("detector output not sorted by confidence (%f after %f)", confidence, prev)
		}
		prev = confidence
		if confidence < minConf {
			break
		}

		box := images.NewRect(
			flat.GetFloatAt(0, i*7+3),
			flat.GetFloatAt(0, i*7+4),
			flat.GetFloatAt(0, i*7+5),
			flat.GetFloatAt(0, i*7+6),
		)
		// Noise filtering: degenerate boxes and boxes entirely outside the
		// unit square are discarded, not reported.
		if box.X1 >= 1 || box.Y1 >= 1 || box.X2 <= 0 || box.Y2 <= 0 {
			continue
		}
		if box.X1 >= box.X2 || box.Y1 >= box.Y2 {
			continue
		}

		dets = append(dets, Detection{
			Box:           box.Mult(w, h),
			Confidence:    confidence,
			HasConfidence: true,
		})
	}

	return dets, nil
}

// Close releases the network.
func (d *OcvCnn) Close() error {
	return d.net.Close()
}
