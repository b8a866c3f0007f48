// Package video streams decoded frames out of media files for the face
// analysis pipeline. Frames are always delivered in RGB.
package video

import (
	"gocv.io/x/gocv"

	"github.com/pkg/errors"
)

// TimeUnit selects how the Start/Stop iteration bounds are expressed.
type TimeUnit string

const (
	// TimeUnitFrame expresses bounds as frame indices.
	TimeUnitFrame TimeUnit = "frame"
	// TimeUnitMS expresses bounds in milliseconds, converted to frame
	// indices using the stream frame rate.
	TimeUnitMS TimeUnit = "ms"
)

// IteratorConfig bounds and subsamples a video iteration.
type IteratorConfig struct {
	// Subsample keeps one frame out of Subsample. 0 means every frame.
	Subsample int
	// Unit is the time unit of Start and Stop. Defaults to TimeUnitFrame.
	Unit TimeUnit
	// Start is the first position to decode, in Unit units. Nil starts at
	// the beginning.
	Start *int
	// Stop is the last position to decode (inclusive), in Unit units. Nil
	// runs to the end of the stream.
	Stop *int
}

// Iterator decodes a video file frame by frame.
type Iterator struct {
	cap       *gocv.VideoCapture
	bgr       gocv.Mat
	rgb       gocv.Mat
	subsample int
	stop      int // inclusive frame bound, -1 when unbounded
	done      bool
}

// unitToFrame converts a position expressed in unit into a frame index.
func unitToFrame(pos int, unit TimeUnit, fps float64) (int, error) {
	switch unit {
	case TimeUnitFrame, "":
		return pos, nil
	case TimeUnitMS:
		return int(float64(pos) * fps / 1000), nil
	default:
		return 0, errors.Errorf("unsupported time unit %q", unit)
	}
}

// keepFrame reports whether a frame index survives subsampling. The stride
// is phased on the post-read stream position, so the first kept frame of a
// stride n iteration is index n-1.
func keepFrame(pos, subsample int) bool {
	if subsample <= 1 {
		return true
	}
	return (pos+1)%subsample == 0
}

// NewIterator opens a video file for iteration. A nil config iterates every
// frame of the whole stream.
func NewIterator(src string, config *IteratorConfig) (*Iterator, error) {
	if config == nil {
		config = &IteratorConfig{}
	}
	// The unit is rejected even without bounds, so a typo never silently
	// falls back to frame units.
	if _, err := unitToFrame(0, config.Unit, 1); err != nil {
		return nil, err
	}

	cap, err := gocv.VideoCaptureFile(src)
	if err != nil {
		return nil, errors.Wrapf(err, "opening video %s", src)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, errors.Errorf("video %s could not be opened", src)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)

	it := &Iterator{
		cap:       cap,
		bgr:       gocv.NewMat(),
		rgb:       gocv.NewMat(),
		subsample: config.Subsample,
		stop:      -1,
	}

	if config.Start != nil {
		start, err := unitToFrame(*config.Start, config.Unit, fps)
		if err != nil {
			it.Close()
			return nil, err
		}
		cap.Set(gocv.VideoCapturePosFrames, float64(start))
	}
	if config.Stop != nil {
		stop, err := unitToFrame(*config.Stop, config.Unit, fps)
		if err != nil {
			it.Close()
			return nil, err
		}
		it.stop = stop
	}

	return it, nil
}

// Next decodes the next frame surviving the subsampling and bounds. It
// returns the frame index, the RGB frame and true, or ok=false once the
// stream is exhausted. The returned Mat is reused between calls; clone it
// to retain it past the next call.
func (it *Iterator) Next() (int, gocv.Mat, bool) {
	for !it.done {
		if !it.cap.Read(&it.bgr) || it.bgr.Empty() {
			it.done = true
			break
		}
		// Read advanced the position, so the decoded frame is pos-1.
		pos := int(it.cap.Get(gocv.VideoCapturePosFrames)) - 1
		if it.stop >= 0 && pos > it.stop {
			it.done = true
			break
		}
		if !keepFrame(pos, it.subsample) {
			continue
		}
		gocv.CvtColor(it.bgr, &it.rgb, gocv.ColorBGRToRGB)
		return pos, it.rgb, true
	}
	return 0, gocv.Mat{}, false
}

// Close releases the capture and the internal frame buffers.
func (it *Iterator) Close() error {
	it.bgr.Close()
	it.rgb.Close()
	return it.cap.Close()
}

// FPS returns the frame rate of a video file.
func FPS(src string) (float64, error) {
	cap, err := gocv.VideoCaptureFile(src)
	if err != nil {
		return 0, errors.Wrapf(err, "opening video %s", src)
	}
	defer cap.Close()

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		return 0, errors.Errorf("video %s reports no frame rate", src)
	}
	return fps, nil
}
