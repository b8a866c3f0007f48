package priorbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anchorCount recomputes the expected anchor total from the layout
// parameters, mirroring the downsampling ladder.
func anchorCount(w, h int) int {
	fmH := ((h + 1) / 2) / 2
	fmW := ((w + 1) / 2) / 2
	total := 0
	for k := range minSizes {
		fmH /= 2
		fmW /= 2
		total += fmH * fmW * len(minSizes[k])
	}
	return total
}

func TestGenerateAnchorCount(t *testing.T) {
	for _, size := range []struct{ w, h int }{
		{320, 320},
		{640, 480},
		{127, 255},
	} {
		pb := New(size.w, size.h, size.w, size.h)
		assert.Equal(t, anchorCount(size.w, size.h), pb.NumPriors(),
			"anchor count for %dx%d", size.w, size.h)
	}
}

// zeroTensors builds loc/conf/iou tensors where every anchor decodes to its
// own prior box with the given class and quality scores.
func zeroTensors(n int, cls, iou float32) (loc, conf, iouT []float32) {
	loc = make([]float32, n*locStride)
	conf = make([]float32, n*2)
	iouT = make([]float32, n)
	for i := 0; i < n; i++ {
		conf[i*2+1] = cls
		iouT[i] = iou
	}
	return loc, conf, iouT
}

func TestDecodeZeroRegression(t *testing.T) {
	pb := New(32, 32, 32, 32)
	n := pb.NumPriors()
	require.Greater(t, n, 0)

	loc, conf, iou := zeroTensors(n, 1, 1)
	results, err := pb.Decode(loc, conf, iou, 0.5)
	require.NoError(t, err)
	require.Len(t, results, n, "all anchors pass with score 1")

	// With zero regression the first anchor decodes to its prior:
	// center (4, 4), side 10 in a 32x32 frame.
	first := results[0]
	assert.InDelta(t, 1.0, first.Score, 1e-6)
	assert.InDelta(t, -1.0, first.Box.X1, 1e-3)
	assert.InDelta(t, -1.0, first.Box.Y1, 1e-3)
	assert.InDelta(t, 9.0, first.Box.X2, 1e-3)
	assert.InDelta(t, 9.0, first.Box.Y2, 1e-3)
	// Eye landmarks collapse onto the anchor center.
	assert.InDelta(t, 4.0, first.Eyes.X1, 1e-3)
	assert.InDelta(t, 4.0, first.Eyes.Y1, 1e-3)
	assert.InDelta(t, 4.0, first.Eyes.X2, 1e-3)
	assert.InDelta(t, 4.0, first.Eyes.Y2, 1e-3)
}

func TestDecodeScoreIsGeometricMean(t *testing.T) {
	pb := New(32, 32, 32, 32)
	n := pb.NumPriors()

	// cls 0.64, quality 0.25 -> combined sqrt(0.16) = 0.4.
	loc, conf, iou := zeroTensors(n, 0.64, 0.25)

	results, err := pb.Decode(loc, conf, iou, 0.39)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.InDelta(t, 0.4, results[0].Score, 1e-4)

	// Raising the threshold past the combined score drops everything.
	results, err = pb.Decode(loc, conf, iou, 0.41)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDecodeClampsQualityScore(t *testing.T) {
	pb := New(32, 32, 32, 32)
	n := pb.NumPriors()

	// Quality above 1 clamps to 1, so the combined score equals sqrt(cls).
	loc, conf, iou := zeroTensors(n, 0.81, 1.7)
	results, err := pb.Decode(loc, conf, iou, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.InDelta(t, 0.9, results[0].Score, 1e-4)

	// Negative quality clamps to 0 and filters the candidate out.
	for i := range iou {
		iou[i] = -0.3
	}
	results, err = pb.Decode(loc, conf, iou, 0.1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDecodeShortTensors(t *testing.T) {
	pb := New(32, 32, 32, 32)
	n := pb.NumPriors()
	loc, conf, iou := zeroTensors(n, 1, 1)

	_, err := pb.Decode(loc[:n], conf, iou, 0.5)
	assert.Error(t, err)
	_, err = pb.Decode(loc, conf[:n], iou, 0.5)
	assert.Error(t, err)
	_, err = pb.Decode(loc, conf, iou[:n/2], 0.5)
	assert.Error(t, err)
}
