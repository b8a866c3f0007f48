package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facelab/go-faces/detect"
	"github.com/facelab/go-faces/video"
)

var detectOpts struct {
	Input    string
	Output   string
	CSV      string
	NthFrame int
	TimeUnit string
	Start    int
	Stop     int
	Show     bool
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect faces in an image or a video",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func init() {
	f := detectCmd.Flags()
	f.StringVarP(&detectOpts.Input, "input", "i", "", "Path to an image or video file")
	f.StringVarP(&detectOpts.Output, "output", "o", "", "Write an annotated copy of the input image")
	f.StringVar(&detectOpts.CSV, "csv", "", "Write detections as CSV (video mode)")
	f.IntVarP(&detectOpts.NthFrame, "nth-frame", "n", 1, "Process one frame out of n (video mode)")
	f.StringVar(&detectOpts.TimeUnit, "time-unit", "frame", "Unit of --start/--stop: frame or ms")
	f.IntVar(&detectOpts.Start, "start", -1, "First position to process")
	f.IntVar(&detectOpts.Stop, "stop", -1, "Last position to process (inclusive)")
	f.BoolVar(&detectOpts.Show, "show", false, "Display annotated frames in a window (video mode)")

	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

func runDetect() error {
	d, err := newDetector(rootOpts)
	if err != nil {
		return err
	}
	defer d.Close()

	if isVideo(detectOpts.Input) {
		return detectVideo(d)
	}
	return detectImage(d)
}

// Extensions handled by the video iterator rather than the image reader.
var videoExts = map[string]bool{
	".mp4": true, ".avi": true, ".mkv": true, ".mov": true, ".webm": true, ".mpg": true,
}

func isVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func detectImage(d *detect.Detector) error {
	frame, err := video.ReadRGB(detectOpts.Input)
	if err != nil {
		return err
	}
	defer frame.Close()

	dets, err := d.Detect(frame)
	if err != nil {
		return err
	}
	for _, det := range dets {
		fmt.Println(det)
	}

	if detectOpts.Output != "" {
		detect.DrawDetections(&frame, dets)
		if err := video.WriteRGB(detectOpts.Output, frame); err != nil {
			return err
		}
	}
	return nil
}

func detectVideo(d *detect.Detector) error {
	config := &video.IteratorConfig{
		Subsample: detectOpts.NthFrame,
		Unit:      video.TimeUnit(detectOpts.TimeUnit),
	}
	if detectOpts.Start >= 0 {
		config.Start = &detectOpts.Start
	}
	if detectOpts.Stop >= 0 {
		config.Stop = &detectOpts.Stop
	}

	it, err := video.NewIterator(detectOpts.Input, config)
	if err != nil {
		return err
	}
	defer it.Close()

	var w *csv.Writer
	if detectOpts.CSV != "" {
		f, err := os.Create(detectOpts.CSV)
		if err != nil {
			return errors.Wrap(err, "creating CSV output")
		}
		defer f.Close()
		w = csv.NewWriter(f)
		defer w.Flush()
		if err := w.Write([]string{"frame", "x1", "y1", "x2", "y2", "confidence"}); err != nil {
			return err
		}
	}

	var win *video.Window
	if detectOpts.Show {
		win = video.NewWindow("faces")
		defer win.Close()
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Detecting faces"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	for {
		pos, frame, ok := it.Next()
		if !ok {
			break
		}
		dets, err := d.Detect(frame)
		if err != nil {
			return errors.Wrapf(err, "frame %d", pos)
		}
		bar.Add(1)

		if win != nil {
			detect.DrawDetections(&frame, dets)
			if !win.Show(frame) {
				break
			}
		}

		if w == nil {
			continue
		}
		for _, det := range dets {
			conf := ""
			if det.HasConfidence {
				conf = strconv.FormatFloat(float64(det.Confidence), 'f', 4, 32)
			}
			rec := []string{
				strconv.Itoa(pos),
				fmt.Sprintf("%.2f", det.Box.X1),
				fmt.Sprintf("%.2f", det.Box.Y1),
				fmt.Sprintf("%.2f", det.Box.X2),
				fmt.Sprintf("%.2f", det.Box.Y2),
				conf,
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
