package video

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// FrameFile is one image file of an extracted frame sequence.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

var frameNumberRe = regexp.MustCompile(`(\d+)\.[^.]+$`)

// ListFrameFiles reads a directory of extracted frames (image files with a
// trailing frame number, such as frame-042.png) and returns them sorted by
// frame number. Files without a parseable number are skipped.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading frame directory %s", dir)
	}

	var frames []FrameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".jpg", ".jpeg", ".png", ".bmp":
		default:
			continue
		}
		m := frameNumberRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		frame, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		frames = append(frames, FrameFile{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frame,
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})
	return frames, nil
}
