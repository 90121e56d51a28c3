// Package images downloads product images and normalizes them into JPEG
// files that the slideshow stages can consume.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"reelforge/internal/config"
)

// Fetcher downloads source images over HTTP and re-encodes them.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	maxDim     int
}

// NewFetcher builds a fetcher from config.
func NewFetcher(cfg config.Config) *Fetcher {
	timeout := cfg.ImageDownloadTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.ImageMaxBytes
	if maxBytes == 0 {
		maxBytes = 25 * 1024 * 1024
	}
	maxDim := cfg.ImageMaxDimension
	if maxDim == 0 {
		maxDim = 4096
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		maxDim:     maxDim,
	}
}

// Fetch downloads one image, decodes it, caps its dimensions, and writes it
// as JPEG to destPath.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) error {
	data, err := f.download(ctx, url)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	img = f.capDimensions(img)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	if err := os.WriteFile(destPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// FetchAll downloads every URL into dir as image_<i>.jpg, skipping failures
// with a warning. The returned paths preserve source order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, dir string) []string {
	var paths []string
	for i, url := range urls {
		dest := filepath.Join(dir, fmt.Sprintf("image_%d.jpg", i))
		if err := f.Fetch(ctx, url, dest); err != nil {
			log.Printf("failed to download image %d from %s: %v", i, url, err)
			continue
		}
		paths = append(paths, dest)
	}
	return paths
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, f.maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("image too large (>%d bytes)", f.maxBytes)
	}
	return body, nil
}

// capDimensions downscales oversized sources so ffmpeg never chews on a
// gigapixel input. Aspect ratio is preserved.
func (f *Fetcher) capDimensions(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= f.maxDim && h <= f.maxDim {
		return img
	}

	scale := float64(f.maxDim) / float64(w)
	if h > w {
		scale = float64(f.maxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
