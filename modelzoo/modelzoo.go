// Package modelzoo fetches and caches the model files the detectors and the
// eye localizer need. Models are downloaded once into the user cache
// directory and reused afterwards.
package modelzoo

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Known model file names.
const (
	// OcvCnnModel is the quantized OpenCV SSD face detection model.
	OcvCnnModel = "opencv_face_detector_uint8.pb"
	// OcvCnnConfig is the network description matching OcvCnnModel.
	OcvCnnConfig = "opencv_face_detector.pbtxt"
	// YuNetModel is the libfacedetection YuNet ONNX model.
	YuNetModel = "libfacedetection-yunet.onnx"
	// PigoFaceFinder is the pigo frontal face cascade.
	PigoFaceFinder = "facefinder"
	// PigoPuploc is the pigo pupil localization cascade.
	PigoPuploc = "puploc"
)

// DefaultBaseURL hosts the released model files.
const DefaultBaseURL = "https://github.com/facelab/go-faces-models/releases/download/v1.0.0"

// Zoo resolves model names to local file paths, downloading on first use.
type Zoo struct {
	baseURL  string
	cacheDir string
	// Progress draws a download progress bar on stderr when set.
	Progress bool
}

// New returns a zoo backed by the default release URL and the user cache
// directory.
func New() (*Zoo, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving user cache directory")
	}
	return &Zoo{
		baseURL:  DefaultBaseURL,
		cacheDir: filepath.Join(cache, "go-faces", "models"),
		Progress: true,
	}, nil
}

// NewWith returns a zoo with an explicit base URL and cache directory, for
// mirrors and tests.
func NewWith(baseURL, cacheDir string) *Zoo {
	return &Zoo{baseURL: baseURL, cacheDir: cacheDir}
}

// Path returns the local cache path of a model without fetching it.
func (z *Zoo) Path(name string) string {
	return filepath.Join(z.cacheDir, name)
}

// URL returns the download URL of a model.
func (z *Zoo) URL(name string) string {
	return fmt.Sprintf("%s/%s", z.baseURL, name)
}

// Fetch returns the local path of a model, downloading it into the cache
// when it is not there yet.
func (z *Zoo) Fetch(name string) (string, error) {
	dst := z.Path(name)
	if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
		return dst, nil
	}
	if err := os.MkdirAll(z.cacheDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating model cache directory")
	}
	if err := z.download(name, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// download fetches one model into dst, through a temporary file so a failed
// download never leaves a truncated model in the cache.
func (z *Zoo) download(name, dst string) error {
	url := z.URL(name)
	res, err := http.Get(url)
	if err != nil {
		return errors.Wrapf(err, "downloading %s", url)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %s: %s", url, res.Status)
	}

	tmp, err := os.CreateTemp(z.cacheDir, name+".part-*")
	if err != nil {
		return errors.Wrap(err, "creating temporary model file")
	}
	defer os.Remove(tmp.Name())

	var out io.Writer = tmp
	if z.Progress {
		bar := progressbar.DefaultBytes(res.ContentLength, "Downloading "+name)
		out = io.MultiWriter(tmp, bar)
	}

	n, err := io.Copy(out, res.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "downloading %s", url)
	}
	if n == 0 {
		return errors.Errorf("downloading %s: empty response", url)
	}

	return errors.Wrap(os.Rename(tmp.Name(), dst), "installing model file")
}

// FetchAll fetches several models, returning their local paths in order.
func (z *Zoo) FetchAll(names ...string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := z.Fetch(name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
