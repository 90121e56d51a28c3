package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFetchNormalizesToJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t, 10, 20))
	}))
	defer srv.Close()

	f := NewFetcher(config.Load())
	dest := filepath.Join(t.TempDir(), "image_0.jpg")
	if err := f.Fetch(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Fatalf("dimensions changed for small image: %v", img.Bounds())
	}
}

func TestFetchCapsOversizedImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngBytes(t, 400, 100))
	}))
	defer srv.Close()

	cfg := config.Load()
	cfg.ImageMaxDimension = 200
	f := NewFetcher(cfg)

	dest := filepath.Join(t.TempDir(), "image_0.jpg")
	if err := f.Fetch(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, _ := os.ReadFile(dest)
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 50 {
		t.Fatalf("expected 200x50 downscale, got %v", img.Bounds())
	}
}

func TestFetchRejectsTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngBytes(t, 50, 50))
	}))
	defer srv.Close()

	cfg := config.Load()
	cfg.ImageMaxBytes = 16
	f := NewFetcher(cfg)
	if err := f.Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.jpg")); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestFetchAllSkipsFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngBytes(t, 10, 10))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	f := NewFetcher(config.Load())
	dir := t.TempDir()
	paths := f.FetchAll(context.Background(), []string{good.URL, bad.URL, good.URL}, dir)
	if len(paths) != 2 {
		t.Fatalf("expected 2 downloads, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "image_0.jpg" || filepath.Base(paths[1]) != "image_2.jpg" {
		t.Fatalf("order not preserved: %v", paths)
	}
}
