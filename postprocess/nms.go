package postprocess

import "sort"

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// ScoreThreshold drops candidates scoring below it before suppression.
	ScoreThreshold float32
	// IoUThreshold is the overlap above which a candidate is suppressed.
	IoUThreshold float32
	// Eta decays the IoU threshold after each kept candidate when < 1.
	// Eta == 1 is plain greedy NMS.
	Eta float32
	// TopK caps the number of kept candidates. <= 0 means unlimited.
	TopK int
}

// ApplyGreedyNMS filters overlapping detections using greedy Non-Maximum
// Suppression.
//
// Arguments:
//   - detections: Candidate slice in any order; it is not modified.
//   - config: Suppression parameters.
//
// Returns:
//   - Kept candidates ordered by descending score. Nil if no candidate
//     survives the score threshold.
func ApplyGreedyNMS(detections []Result, config *NMSConfig) []Result {
	if len(detections) == 0 {
		return nil
	}

	candidates := make([]Result, 0, len(detections))
	for _, d := range detections {
		if d.Score >= config.ScoreThreshold {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	n := len(candidates)
	filtered := make([]Result, 0, n)
	used := make([]bool, n)
	threshold := config.IoUThreshold

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		if config.TopK > 0 && len(filtered) == config.TopK {
			break
		}

		anchor := candidates[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if anchor.Box.IoU(candidates[j].Box) > threshold {
				used[j] = true
			}
		}

		// OpenCV-style adaptive threshold decay.
		if config.Eta > 0 && config.Eta < 1 && threshold > 0.5 {
			threshold *= config.Eta
		}
	}

	return filtered
}
