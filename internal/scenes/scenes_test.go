package scenes

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestPlanTenSecondsNominalFour(t *testing.T) {
	sc, err := Plan(3, 4.0, 10.0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(sc) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(sc))
	}
	for i, s := range sc {
		if math.Abs(s.Duration()-5.0) > 1e-9 {
			t.Fatalf("scene %d duration = %f, want 5.0", i, s.Duration())
		}
	}
}

func TestPlanDurationsSumToAudio(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		d := 0.5 + rng.Float64()*600
		nominal := 0.5 + rng.Float64()*10
		images := 1 + rng.Intn(8)

		sc, err := Plan(images, nominal, d)
		if err != nil {
			t.Fatalf("plan(%d, %f, %f): %v", images, nominal, d, err)
		}
		if math.Abs(TotalDuration(sc)-d) > 1e-6 {
			t.Fatalf("durations sum %f != audio %f", TotalDuration(sc), d)
		}
		prev := 0.0
		for i, s := range sc {
			if math.Abs(s.Start-prev) > 1e-9 {
				t.Fatalf("scene %d has a gap: start %f, prev end %f", i, s.Start, prev)
			}
			prev = s.End
		}
	}
}

func TestPlanImageIndexNeverExceedsCount(t *testing.T) {
	// 12 scenes from 3 images: last image repeats.
	sc, err := Plan(3, 1.0, 12.0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(sc) != 12 {
		t.Fatalf("expected 12 scenes, got %d", len(sc))
	}
	for i, s := range sc {
		want := i
		if want > 2 {
			want = 2
		}
		if s.ImageIndex != want {
			t.Fatalf("scene %d image index = %d, want %d", i, s.ImageIndex, want)
		}
	}
}

func TestPlanShortAudioYieldsOneScene(t *testing.T) {
	sc, err := Plan(5, 5.0, 2.0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(sc) != 1 || math.Abs(sc[0].Duration()-2.0) > 1e-9 {
		t.Fatalf("expected one 2s scene, got %+v", sc)
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	if _, err := Plan(0, 5.0, 10.0); err == nil {
		t.Fatal("zero images must fail")
	}
	if _, err := Plan(3, 5.0, 0); err == nil {
		t.Fatal("zero duration must fail")
	}
}

func TestFromBoundaries(t *testing.T) {
	sc, err := FromBoundaries(2, [][2]float64{{0, 2}, {2, 5}, {5, 6}})
	if err != nil {
		t.Fatalf("from boundaries: %v", err)
	}
	if len(sc) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(sc))
	}
	if sc[2].ImageIndex != 1 {
		t.Fatalf("last scene should reuse final image, got index %d", sc[2].ImageIndex)
	}

	if _, err := FromBoundaries(2, [][2]float64{{0, 2}, {1, 3}}); err == nil {
		t.Fatal("overlapping windows must fail")
	}
	if _, err := FromBoundaries(2, [][2]float64{{2, 2}}); err == nil {
		t.Fatal("empty window must fail")
	}
}

func TestPlaylistGrammar(t *testing.T) {
	sc, err := FromBoundaries(2, [][2]float64{{0, 2.5}, {2.5, 5}})
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	out, err := Playlist([]string{"/tmp/a.png", "/tmp/b.png"}, sc)
	if err != nil {
		t.Fatalf("playlist: %v", err)
	}
	want := "file '/tmp/a.png'\nduration 2.5\n" +
		"file '/tmp/b.png'\nduration 2.5\n" +
		"file '/tmp/b.png'\n"
	if out != want {
		t.Fatalf("playlist mismatch:\n got %q\nwant %q", out, want)
	}
	if strings.HasSuffix(strings.TrimSuffix(out, "\n"), "duration 2.5") {
		t.Fatal("final image must not carry a trailing duration directive")
	}
}

func TestEstimateNarrationDuration(t *testing.T) {
	text := strings.Repeat("a", 150)
	if got := EstimateNarrationDuration(text); math.Abs(got-10.0) > 1e-9 {
		t.Fatalf("estimate = %f, want 10.0", got)
	}
}
