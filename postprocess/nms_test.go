package postprocess

import (
	"testing"

	"github.com/facelab/go-faces/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greedyConfig() *NMSConfig {
	return &NMSConfig{
		ScoreThreshold: 0.1,
		IoUThreshold:   0.3,
		Eta:            1,
		TopK:           750,
	}
}

func TestApplyGreedyNMS_Empty(t *testing.T) {
	assert.Nil(t, ApplyGreedyNMS(nil, greedyConfig()))
	assert.Nil(t, ApplyGreedyNMS([]Result{}, greedyConfig()))
}

func TestApplyGreedyNMS_SuppressesOverlap(t *testing.T) {
	// Two heavily overlapping boxes: only the higher-scoring one survives.
	dets := []Result{
		{Box: images.NewRect(0, 0, 100, 100), Score: 0.6},
		{Box: images.NewRect(5, 5, 105, 105), Score: 0.9},
	}

	got := ApplyGreedyNMS(dets, greedyConfig())
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.9), got[0].Score)
}

func TestApplyGreedyNMS_KeepsDisjoint(t *testing.T) {
	dets := []Result{
		{Box: images.NewRect(0, 0, 50, 50), Score: 0.8},
		{Box: images.NewRect(100, 100, 150, 150), Score: 0.7},
		{Box: images.NewRect(200, 0, 250, 50), Score: 0.9},
	}

	got := ApplyGreedyNMS(dets, greedyConfig())
	require.Len(t, got, 3)
	// Ordered by descending score.
	assert.Equal(t, float32(0.9), got[0].Score)
	assert.Equal(t, float32(0.8), got[1].Score)
	assert.Equal(t, float32(0.7), got[2].Score)
}

func TestApplyGreedyNMS_TopK(t *testing.T) {
	dets := []Result{
		{Box: images.NewRect(0, 0, 50, 50), Score: 0.8},
		{Box: images.NewRect(100, 100, 150, 150), Score: 0.7},
		{Box: images.NewRect(200, 0, 250, 50), Score: 0.9},
	}

	cfg := greedyConfig()
	cfg.TopK = 1
	got := ApplyGreedyNMS(dets, cfg)
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.9), got[0].Score, "the highest score wins")
}

func TestApplyGreedyNMS_ScoreThreshold(t *testing.T) {
	dets := []Result{
		{Box: images.NewRect(0, 0, 50, 50), Score: 0.05},
		{Box: images.NewRect(100, 100, 150, 150), Score: 0.7},
	}

	got := ApplyGreedyNMS(dets, greedyConfig())
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.7), got[0].Score)

	// All below threshold.
	cfg := greedyConfig()
	cfg.ScoreThreshold = 0.99
	assert.Nil(t, ApplyGreedyNMS(dets, cfg))
}

func TestApplyGreedyNMS_CarriesEyes(t *testing.T) {
	eyes := images.NewRect(10, 20, 30, 20)
	dets := []Result{
		{Box: images.NewRect(0, 0, 50, 50), Score: 0.8, Eyes: eyes},
	}

	got := ApplyGreedyNMS(dets, greedyConfig())
	require.Len(t, got, 1)
	assert.Equal(t, eyes, got[0].Eyes, "landmarks survive suppression")
}

func TestApplyGreedyNMS_BelowThresholdOverlapKept(t *testing.T) {
	// IoU below the threshold: both boxes survive.
	dets := []Result{
		{Box: images.NewRect(0, 0, 100, 100), Score: 0.9},
		{Box: images.NewRect(80, 80, 180, 180), Score: 0.8},
	}

	got := ApplyGreedyNMS(dets, greedyConfig())
	assert.Len(t, got, 2)
}
