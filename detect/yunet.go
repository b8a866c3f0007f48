package detect

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/postprocess"
	"github.com/facelab/go-faces/priorbox"
)

// NMS parameters of the libfacedetection reference pipeline.
const (
	yunetNMSThreshold = 0.3
	yunetKeepTopK     = 750
)

// YuNet wraps the libfacedetection YuNet ONNX face detector. Its detections
// carry eye landmark boxes in addition to the face box.
//
// The model accepts arbitrary input sizes; anchor sets are generated per
// distinct frame size and kept in a small LRU cache.
type YuNet struct {
	session *ort.DynamicAdvancedSession
	priors  *priorbox.Cache
}

// YuNetConfig configures the ONNX detector.
type YuNetConfig struct {
	// ModelPath is the libfacedetection-yunet.onnx file.
	ModelPath string
	// PriorCacheSize bounds the per-frame-size anchor cache. Zero selects
	// priorbox.DefaultCacheSize.
	PriorCacheSize int
}

// DefaultYuNetOptions returns the detection options tuned for this model.
func DefaultYuNetOptions() Options {
	return Options{
		MinConf:   0.98,
		MinSizePx: 30,
	}
}

// NewYuNet loads the YuNet ONNX model and wraps it with the given options.
// Construction fails when the model cannot be loaded.
func NewYuNet(config YuNetConfig, opts Options) (*Detector, error) {
	info, err := os.Stat(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", config.ModelPath, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("model file is empty: %s", config.ModelPath)
	}

	if err := initOnnxRuntime(); err != nil {
		return nil, fmt.Errorf("error initializing ORT environment: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}
	defer options.Destroy()
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		[]string{"input"},
		[]string{"loc", "conf", "iou"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating ONNX session: %w", err)
	}

	log.Printf("✅ YuNet face detector initialized with model: %s", config.ModelPath)

	raw := &YuNet{
		session: session,
		priors:  priorbox.NewCache(config.PriorCacheSize),
	}
	return NewDetector(raw, opts), nil
}

// RawDetect runs inference at the frame's native size and decodes the three
// output tensors against the frame's anchor set, then suppresses overlaps.
func (d *YuNet) RawDetect(frame gocv.Mat, minConf float32) ([]Detection, error) {
	h := frame.Rows()
	w := frame.Cols()

	blob, err := bgrBlob(frame)
	if err != nil {
		return nil, errors.Wrap(err, "preparing input blob")
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), blob)
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}
	defer input.Destroy()

	// The session allocates the output tensors: their candidate dimension
	// depends on the frame size.
	outputs := make([]ort.Value, 3)
	if err := d.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "running inference")
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensors := make([][]float32, 3)
	for i, out := range outputs {
		t, ok := out.(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Errorf("output %d is not a float32 tensor", i)
		}
		tensors[i] = t.GetData()
	}

	pb := d.priors.Get(w, h)
	candidates, err := pb.Decode(tensors[0], tensors[1], tensors[2], minConf)
	if err != nil {
		return nil, errors.Wrap(err, "decoding candidates")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	kept := postprocess.ApplyGreedyNMS(candidates, &postprocess.NMSConfig{
		ScoreThreshold: minConf,
		IoUThreshold:   yunetNMSThreshold,
		Eta:            1,
		TopK:           yunetKeepTopK,
	})

	dets := make([]Detection, 0, len(kept))
	for _, c := range kept {
		dets = append(dets, Detection{
			Box:           c.Box,
			Confidence:    c.Score,
			HasConfidence: true,
			Eyes:          c.Eyes,
			HasEyes:       true,
		})
	}
	return dets, nil
}

// Close releases the ONNX session.
func (d *YuNet) Close() error {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	return nil
}

// bgrBlob converts an RGB frame to the CHW float32 layout with BGR channel
// order expected by the model. Pixel values stay in 0..255.
func bgrBlob(frame gocv.Mat) ([]float32, error) {
	src := frame
	if !frame.IsContinuous() {
		src = frame.Clone()
		defer src.Close()
	}
	data, err := src.DataPtrUint8()
	if err != nil {
		return nil, err
	}

	h := frame.Rows()
	w := frame.Cols()
	channelSize := h * w
	if len(data) < channelSize*3 {
		return nil, errors.Errorf("frame holds %d bytes, needs %d", len(data), channelSize*3)
	}

	blob := make([]float32, channelSize*3)
	blue := blob[0:channelSize]
	green := blob[channelSize : channelSize*2]
	red := blob[channelSize*2 : channelSize*3]

	for i := 0; i < channelSize; i++ {
		red[i] = float32(data[i*3])
		green[i] = float32(data[i*3+1])
		blue[i] = float32(data[i*3+2])
	}
	return blob, nil
}
