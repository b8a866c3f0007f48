// Package cli implements the faces command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/facelab/go-faces/detect"
	"github.com/facelab/go-faces/modelzoo"
)

// Version is the application version.
const Version = "0.1.0"

// Options holds the detector configuration shared by the detect and align
// commands.
type Options struct {
	Detector  string
	MinConf   float32
	MinSizePx float32
	Padding   float32
	Verbose   bool
	DebugDir  string
}

var rootOpts Options

var rootCmd = &cobra.Command{
	Use:     "faces",
	Short:   "Face detection and alignment toolkit",
	Version: Version,
}

// Execute runs the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.Detector, "detector", "d", "yunet", "Face detector: yunet, ocvcnn, pigo or identity")
	pf.Float32VarP(&rootOpts.MinConf, "min-conf", "c", -1, "Minimal detection confidence (negative keeps the detector default)")
	pf.Float32Var(&rootOpts.MinSizePx, "min-size", 30, "Minimal face box size in pixels")
	pf.Float32Var(&rootOpts.Padding, "padding", 0, "Black frame padding ratio applied before detection")
	pf.BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "Log each detection")
	pf.StringVar(&rootOpts.DebugDir, "debug-dir", "", "Directory receiving annotated debug frames")
}

// newDetector builds the detector selected on the command line, fetching
// its model files on first use.
func newDetector(opts Options) (*detect.Detector, error) {
	switch opts.Detector {
	case "identity":
		return detect.NewIdentity(), nil
	case "yunet":
		zoo, err := modelzoo.New()
		if err != nil {
			return nil, err
		}
		model, err := zoo.Fetch(modelzoo.YuNetModel)
		if err != nil {
			return nil, err
		}
		dopts := detect.DefaultYuNetOptions()
		applyOptions(&dopts, opts)
		return detect.NewYuNet(detect.YuNetConfig{ModelPath: model}, dopts)
	case "ocvcnn":
		zoo, err := modelzoo.New()
		if err != nil {
			return nil, err
		}
		paths, err := zoo.FetchAll(modelzoo.OcvCnnModel, modelzoo.OcvCnnConfig)
		if err != nil {
			return nil, err
		}
		dopts := detect.DefaultOcvCnnOptions()
		applyOptions(&dopts, opts)
		return detect.NewOcvCnn(detect.OcvCnnConfig{ModelPath: paths[0], ConfigPath: paths[1]}, dopts)
	case "pigo":
		zoo, err := modelzoo.New()
		if err != nil {
			return nil, err
		}
		cascade, err := zoo.Fetch(modelzoo.PigoFaceFinder)
		if err != nil {
			return nil, err
		}
		dopts := detect.DefaultPigoOptions()
		applyOptions(&dopts, opts)
		return detect.NewPigo(detect.PigoConfig{CascadePath: cascade}, dopts)
	default:
		return nil, errors.Errorf("unknown detector %q", opts.Detector)
	}
}

// applyOptions overrides a detector's default options with the command line
// flags.
func applyOptions(dopts *detect.Options, opts Options) {
	if opts.MinConf >= 0 {
		dopts.MinConf = opts.MinConf
	}
	dopts.MinSizePx = opts.MinSizePx
	if opts.Padding > 0 {
		dopts.PaddPrct = opts.Padding
	}
	dopts.Verbose = opts.Verbose
	dopts.DebugDir = opts.DebugDir
}
