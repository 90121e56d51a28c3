// Package scenes partitions a set of still images and a known audio duration
// into timed scenes, and writes the concat playlist that drives slideshow
// assembly.
package scenes

import (
	"fmt"
	"math"
	"os"
	"strings"

	"reelforge/internal/errs"
	"reelforge/internal/models"
)

// Plan derives scene timings from the audio duration. The nominal per-scene
// duration is a target; the audio duration is authoritative, so the actual
// duration is redistributed uniformly across the scene count. Once images
// are exhausted the last image repeats for the remaining scenes.
func Plan(imageCount int, nominal, audioDuration float64) ([]models.Scene, error) {
	if imageCount < 1 {
		return nil, errs.Validation("no images to build scenes from")
	}
	if audioDuration <= 0 {
		return nil, errs.Validation("audio duration must be positive, got %f", audioDuration)
	}
	if nominal <= 0 {
		nominal = 5.0
	}

	num := int(math.Floor(audioDuration / nominal))
	if num < 1 {
		num = 1
	}
	per := audioDuration / float64(num)

	out := make([]models.Scene, 0, num)
	for i := 0; i < num; i++ {
		idx := i
		if idx > imageCount-1 {
			idx = imageCount - 1
		}
		out = append(out, models.Scene{
			ImageIndex: idx,
			Start:      float64(i) * per,
			End:        float64(i+1) * per,
		})
	}
	// Close the last window exactly on the audio duration.
	out[len(out)-1].End = audioDuration
	return out, nil
}

// FromBoundaries accepts explicit per-scene windows supplied by the caller,
// used when scene timing is already known. Timing derivation is bypassed but
// the scene count is still validated against available images and the
// windows must be monotonic and non-overlapping.
func FromBoundaries(imageCount int, windows [][2]float64) ([]models.Scene, error) {
	if imageCount < 1 {
		return nil, errs.Validation("no images to build scenes from")
	}
	if len(windows) == 0 {
		return nil, errs.Validation("no scene windows supplied")
	}
	out := make([]models.Scene, 0, len(windows))
	prevEnd := 0.0
	for i, w := range windows {
		if w[1] <= w[0] {
			return nil, errs.Validation("scene %d window is empty or inverted", i)
		}
		if w[0] < prevEnd {
			return nil, errs.Validation("scene %d overlaps the previous window", i)
		}
		idx := i
		if idx > imageCount-1 {
			idx = imageCount - 1
		}
		out = append(out, models.Scene{ImageIndex: idx, Start: w[0], End: w[1]})
		prevEnd = w[1]
	}
	return out, nil
}

// TotalDuration sums scene durations.
func TotalDuration(sc []models.Scene) float64 {
	total := 0.0
	for _, s := range sc {
		total += s.Duration()
	}
	return total
}

// Playlist renders the concat demuxer playlist for the given scenes. Each
// scene contributes a file directive and a duration directive; the final
// frame path is repeated once more without a duration line so the demuxer
// renders the last scene in full.
func Playlist(framePaths []string, sc []models.Scene) (string, error) {
	if len(framePaths) != len(sc) {
		return "", errs.Validation("playlist needs one frame per scene: %d frames, %d scenes", len(framePaths), len(sc))
	}
	var b strings.Builder
	for i, s := range sc {
		fmt.Fprintf(&b, "file '%s'\nduration %g\n", framePaths[i], s.Duration())
	}
	fmt.Fprintf(&b, "file '%s'\n", framePaths[len(framePaths)-1])
	return b.String(), nil
}

// WritePlaylist writes the concat playlist to path.
func WritePlaylist(path string, framePaths []string, sc []models.Scene) error {
	content, err := Playlist(framePaths, sc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// EstimateNarrationDuration approximates the spoken length of text when the
// audio container cannot be probed, at roughly fifteen characters per second.
func EstimateNarrationDuration(text string) float64 {
	return float64(len(text)) / 15.0
}
