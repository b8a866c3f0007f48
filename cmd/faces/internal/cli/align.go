package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/facelab/go-faces/align"
	"github.com/facelab/go-faces/detect"
	"github.com/facelab/go-faces/images"
	"github.com/facelab/go-faces/modelzoo"
	"github.com/facelab/go-faces/video"
)

var alignOpts struct {
	Input      string
	OutputDir  string
	CenterOnly bool
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Detect faces in an image and write eye-aligned crops",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAlign()
	},
}

func init() {
	f := alignCmd.Flags()
	f.StringVarP(&alignOpts.Input, "input", "i", "", "Path to an image file")
	f.StringVarP(&alignOpts.OutputDir, "output-dir", "o", ".", "Directory receiving the aligned crops")
	f.BoolVar(&alignOpts.CenterOnly, "center-only", false, "Only align the face closest to the image center")

	alignCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(alignCmd)
}

func runAlign() error {
	d, err := newDetector(rootOpts)
	if err != nil {
		return err
	}
	defer d.Close()

	frame, err := video.ReadRGB(alignOpts.Input)
	if err != nil {
		return err
	}
	defer frame.Close()

	var dets []detect.Detection
	if alignOpts.CenterOnly {
		det, ok, err := d.MostCentralFace(frame)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no face found at the image center")
		}
		dets = []detect.Detection{det}
	} else {
		dets, err = d.Detect(frame)
		if err != nil {
			return err
		}
	}
	if len(dets) == 0 {
		return errors.New("no face found")
	}

	// Detectors without eye landmarks fall back to the pupil localization
	// cascade.
	var aligner *align.Aligner
	for _, det := range dets {
		if det.HasEyes {
			continue
		}
		zoo, err := modelzoo.New()
		if err != nil {
			return err
		}
		cascade, err := zoo.Fetch(modelzoo.PigoPuploc)
		if err != nil {
			return err
		}
		aligner, err = align.NewAligner(cascade)
		if err != nil {
			return err
		}
		break
	}

	if err := os.MkdirAll(alignOpts.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	base := filepath.Base(alignOpts.Input)
	base = base[:len(base)-len(filepath.Ext(base))]

	for i, det := range dets {
		var crop gocv.Mat
		if det.HasEyes {
			left := images.Point{X: det.Eyes.X1, Y: det.Eyes.Y1}
			right := images.Point{X: det.Eyes.X2, Y: det.Eyes.Y2}
			crop, _, _, err = align.Align(frame, det.Box, left, right)
			if err != nil {
				return err
			}
		} else {
			var ok bool
			crop, _, _, ok, err = aligner.AlignFace(frame, det.Box)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(os.Stderr, "skipping face %d: eyes not found\n", i)
				continue
			}
		}
		out := filepath.Join(alignOpts.OutputDir, fmt.Sprintf("%s-face-%d.png", base, i))
		err = video.WriteRGB(out, crop)
		crop.Close()
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}
