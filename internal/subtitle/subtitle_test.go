package subtitle

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCuesUniformDivision(t *testing.T) {
	fragments := []string{"one", "two", "three", "four"}
	cues := Cues(fragments, 10.0)

	if len(cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(cues))
	}
	for i, c := range cues {
		if c.Index != i+1 {
			t.Fatalf("cue %d has index %d", i, c.Index)
		}
		if math.Abs(c.End-c.Start-2.5) > 1e-9 {
			t.Fatalf("cue %d duration = %f, want 2.5", i, c.End-c.Start)
		}
		if i > 0 && cues[i-1].End != c.Start {
			t.Fatalf("cue %d not contiguous: prev end %f, start %f", i, cues[i-1].End, c.Start)
		}
	}
	if cues[0].Start != 0 {
		t.Fatalf("first cue starts at %f", cues[0].Start)
	}
	if math.Abs(cues[len(cues)-1].End-10.0) > 1e-9 {
		t.Fatalf("last cue ends at %f, want 10.0", cues[len(cues)-1].End)
	}
}

func TestCuesSkipEmptyFragments(t *testing.T) {
	cues := Cues([]string{"one", "  ", "", "two"}, 6.0)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	// Indexes increment only for emitted cues.
	if cues[0].Index != 1 || cues[1].Index != 2 {
		t.Fatalf("indexes not sequential: %d, %d", cues[0].Index, cues[1].Index)
	}
	if math.Abs(cues[1].End-6.0) > 1e-9 {
		t.Fatalf("cues must span the full duration, last end %f", cues[1].End)
	}
}

func TestCuesCollapseNewlines(t *testing.T) {
	cues := Cues([]string{"line one\nline two"}, 2.0)
	if cues[0].Text != "line one line two" {
		t.Fatalf("newlines not collapsed: %q", cues[0].Text)
	}
}

func TestTimestamp(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{65.25, "00:01:05,250"},
		{3661.001, "01:01:01,001"},
	}
	for _, c := range cases {
		if got := Timestamp(c.in); got != c.want {
			t.Fatalf("Timestamp(%f) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWriteFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtitles.srt")
	if err := WriteFile(path, []string{"hello", "world"}, 4.0); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:02,000\nhello\n\n" +
		"2\n00:00:02,000 --> 00:00:04,000\nworld\n\n"
	if string(data) != want {
		t.Fatalf("srt mismatch:\n got %q\nwant %q", string(data), want)
	}
	if !strings.HasSuffix(string(data), "\n\n") {
		t.Fatal("blocks must end with a blank line")
	}
}
