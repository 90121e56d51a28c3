// Package subtitle partitions a narration script into timed caption cues and
// writes them in SubRip format.
//
// Timing is a uniform division of the audio duration: each fragment gets an
// equal slice, in order, contiguous and non-overlapping. It does not measure
// actual speech cadence.
package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// Cue is one caption with a monotonic, non-overlapping time window.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Cues builds one cue per non-empty fragment, equally dividing totalDuration.
// Internal newlines in a fragment collapse to spaces.
func Cues(fragments []string, totalDuration float64) []Cue {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	slice := totalDuration / float64(len(kept))
	cues := make([]Cue, 0, len(kept))
	for i, f := range kept {
		text := strings.Join(strings.Fields(f), " ")
		cues = append(cues, Cue{
			Index: i + 1,
			Start: float64(i) * slice,
			End:   float64(i+1) * slice,
			Text:  text,
		})
	}
	return cues
}

// Format renders cues as a SubRip document: index, timestamp line, text, and
// a blank-line separator per cue.
func Format(cues []Cue) string {
	var b strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, Timestamp(c.Start), Timestamp(c.End), c.Text)
	}
	return b.String()
}

// WriteFile builds cues from fragments and writes the SRT file.
func WriteFile(path string, fragments []string, totalDuration float64) error {
	srt := Format(Cues(fragments, totalDuration))
	if err := os.WriteFile(path, []byte(srt), 0o644); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return nil
}

// Timestamp formats seconds as HH:MM:SS,mmm.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	millis := int((seconds - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
