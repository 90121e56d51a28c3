// Package render drives the product-to-video pipeline: it fetches product
// images, builds and voices the narration, plans scene timing, and walks the
// compositor stage chain to the finished file.
package render

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"reelforge/internal/config"
	"reelforge/internal/csvx"
	"reelforge/internal/errs"
	"reelforge/internal/media"
	"reelforge/internal/models"
	"reelforge/internal/scenes"
	"reelforge/internal/script"
	"reelforge/internal/subtitle"
	"reelforge/internal/telemetry"
)

// Synthesizer voices a narration script. A client without credentials
// reports Configured() == false and is skipped rather than called.
type Synthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// ImageFetcher downloads product images into a directory, skipping
// failures, and returns the paths that succeeded in input order.
type ImageFetcher interface {
	FetchAll(ctx context.Context, urls []string, dir string) []string
}

// Pipeline renders product records into narrated vertical videos.
type Pipeline struct {
	cfg     config.Config
	ff      *media.FFmpeg
	tts     Synthesizer
	fetcher ImageFetcher
}

func New(cfg config.Config, ff *media.FFmpeg, tts Synthesizer, fetcher ImageFetcher) *Pipeline {
	return &Pipeline{cfg: cfg, ff: ff, tts: tts, fetcher: fetcher}
}

// RenderProduct runs the full pipeline for a single product and writes the
// finished video to outputPath. Fatal stages (slideshow, final mux) abort
// the job; cosmetic stages (subtitles, watermark) fall back to the previous
// artifact on failure. Without speech credentials the video is rendered
// silent with narration length estimated from the script text.
func (p *Pipeline) RenderProduct(ctx context.Context, jobID string, rec models.ProductRecord, opts models.RenderOptions, outputPath string) error {
	scratch := filepath.Join(p.cfg.WorkDir, "render", jobID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Printf("render %s: scratch cleanup: %v", jobID, err)
		}
	}()

	imagesDir := filepath.Join(scratch, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}
	images := p.fetcher.FetchAll(ctx, rec.ImageURLs, imagesDir)
	if len(images) == 0 {
		return errs.Validation("no product images could be downloaded")
	}

	fragments, err := script.Build(rec, opts.OutroText)
	if err != nil {
		return err
	}
	narration := script.Join(fragments)

	voice := opts.Voice
	if voice == "" {
		voice = p.cfg.DefaultVoice
	}

	var audioPath string
	var duration float64
	if p.tts.Configured() {
		audio, err := p.tts.Synthesize(ctx, narration, voice)
		if err != nil {
			return fmt.Errorf("speech synthesis: %w", err)
		}
		rawPath := filepath.Join(scratch, "narration.mp3")
		if err := os.WriteFile(rawPath, audio, 0o644); err != nil {
			return fmt.Errorf("write narration audio: %w", err)
		}
		audioPath = filepath.Join(scratch, "narration.wav")
		if err := p.ff.ConvertToWAV(ctx, rawPath, audioPath); err != nil {
			return err
		}
		duration, err = p.ff.ProbeDuration(ctx, audioPath)
		if err != nil {
			duration = scenes.EstimateNarrationDuration(narration)
			log.Printf("render %s: narration probe failed, estimating %.1fs: %v", jobID, duration, err)
		}
	} else {
		duration = scenes.EstimateNarrationDuration(narration)
		log.Printf("render %s: speech credentials absent, rendering silent video (%.1fs)", jobID, duration)
	}

	plan, err := scenes.Plan(len(images), opts.SceneDuration, duration)
	if err != nil {
		return err
	}

	framePaths := make([]string, len(plan))
	for i, sc := range plan {
		frame := filepath.Join(scratch, fmt.Sprintf("frame_%03d.jpg", i))
		if err := p.ff.SceneFrame(ctx, images[sc.ImageIndex], frame, opts.Width, opts.Height); err != nil {
			telemetry.StageFallbacks.Inc()
			log.Printf("render %s: scene frame %d failed, substituting black frame: %v", jobID, i, err)
			if err := p.ff.BlackFrame(ctx, frame, opts.Width, opts.Height); err != nil {
				return err
			}
		}
		framePaths[i] = frame
	}

	playlistPath := filepath.Join(scratch, "playlist.txt")
	if err := scenes.WritePlaylist(playlistPath, framePaths, plan); err != nil {
		return err
	}

	current := filepath.Join(scratch, "slideshow.mp4")
	if err := p.ff.Slideshow(ctx, playlistPath, current, opts); err != nil {
		return err
	}

	if opts.ShowSubtitles {
		srtPath := filepath.Join(scratch, "narration.srt")
		if err := subtitle.WriteFile(srtPath, fragments, duration); err != nil {
			telemetry.StageFallbacks.Inc()
			log.Printf("render %s: subtitle file write failed, skipping subtitles: %v", jobID, err)
		} else {
			next := filepath.Join(scratch, "subtitled.mp4")
			if err := p.ff.BurnSubtitles(ctx, current, srtPath, next, opts.Font, opts.FontSize); err != nil {
				telemetry.StageFallbacks.Inc()
				log.Printf("render %s: subtitle burn failed, keeping unsubtitled video: %v", jobID, err)
			} else {
				current = next
			}
		}
	}

	if opts.Watermark != "" {
		next := filepath.Join(scratch, "watermarked.mp4")
		if err := p.ff.Watermark(ctx, current, opts.Watermark, next); err != nil {
			telemetry.StageFallbacks.Inc()
			log.Printf("render %s: watermark failed, keeping unmarked video: %v", jobID, err)
		} else {
			current = next
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if audioPath != "" {
		return p.ff.MuxAudio(ctx, current, audioPath, outputPath)
	}
	if err := moveFile(current, outputPath); err != nil {
		return fmt.Errorf("finalize silent video: %w", err)
	}
	return nil
}

// ProcessBatch renders one video per usable CSV row into outDir. Row
// failures are recorded in the returned manifest and do not stop the batch;
// only a batch with zero successes is an error.
func (p *Pipeline) ProcessBatch(ctx context.Context, jobID, csvPath, outDir string, opts models.RenderOptions) ([]models.RowResult, string, error) {
	records, err := csvx.ExtractFile(csvPath)
	if err != nil {
		return nil, "", err
	}

	results := make([]models.RowResult, 0, len(records))
	succeeded := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, "", err
		}
		row := i + 1
		name := outputName(rec.Title, row) + ".mp4"
		res := models.RowResult{Row: row, Title: rec.Title}
		rowID := fmt.Sprintf("%s-row%d", jobID, row)
		if err := p.RenderProduct(ctx, rowID, rec, opts, filepath.Join(outDir, name)); err != nil {
			res.Error = true
			res.Message = err.Error()
			log.Printf("batch %s: row %d (%s): %v", jobID, row, rec.Title, err)
		} else {
			res.Output = name
			res.Message = "completed"
			succeeded++
		}
		results = append(results, res)
	}

	if succeeded == 0 {
		return results, "", errs.Validation("no products could be rendered")
	}
	message := fmt.Sprintf("Generated %d of %d product videos", succeeded, len(records))
	return results, message, nil
}

// outputName derives a filesystem-safe base name from the product title,
// falling back to the row number for unusable titles.
func outputName(title string, row int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	name := b.String()
	if runes := []rune(name); len(runes) > 40 {
		name = string(runes[:40])
	}
	if name == "" {
		return fmt.Sprintf("product_%d", row)
	}
	return name
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
