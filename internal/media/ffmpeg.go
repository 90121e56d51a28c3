// Package media wraps the external ffmpeg/ffprobe tools behind the
// compositor stages: validation, transcode, audio conversion, scene frames,
// slideshow assembly, subtitle burn-in, watermarking, and the final mux.
//
// Every invocation is a single synchronous call with a bounded wall-clock
// timeout; a timeout is treated identically to a non-zero exit.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/errs"
	"reelforge/internal/models"
)

// Compositor stage names, used in error messages and logs.
const (
	StageValidate   = "validate"
	StageTranscode  = "transcode"
	StageAudio      = "audio_convert"
	StageSceneFrame = "scene_frame"
	StageSlideshow  = "slideshow"
	StageSubtitles  = "subtitle_burn"
	StageWatermark  = "watermark"
	StageMux        = "audio_mux"
)

// FFmpeg invokes the media tools. Paths and the runner are injectable for
// tests.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	runner      Runner
	cfg         config.Config
}

// New builds the production wrapper.
func New(cfg config.Config) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecRunner{},
		cfg:         cfg,
	}
}

// WithRunner swaps the command runner, used by tests.
func (f *FFmpeg) WithRunner(r Runner) *FFmpeg {
	f.runner = r
	return f
}

// run executes one tool invocation under a stage timeout, mapping every
// failure to an ExternalToolError.
func (f *FFmpeg) run(ctx context.Context, stage string, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := f.runner.Run(ctx, name, args...)
	if err != nil {
		stderr := res.Stderr
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			stderr = fmt.Sprintf("timed out after %s", timeout)
		}
		return res, &errs.ExternalToolError{
			Stage:    stage,
			Cmd:      name,
			ExitCode: res.ExitCode,
			Stderr:   stderr,
			Err:      err,
		}
	}
	return res, nil
}

// probeOutput mirrors the ffprobe -print_format json fields we consume.
type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

func (f *FFmpeg) probe(ctx context.Context, path string) (probeOutput, error) {
	res, err := f.run(ctx, StageValidate, f.cfg.ValidateTimeout, f.ffprobePath,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return probeOutput{}, err
	}
	var out probeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return probeOutput{}, &errs.ExternalToolError{Stage: StageValidate, Cmd: f.ffprobePath, Err: fmt.Errorf("parse probe output: %w", err)}
	}
	return out, nil
}

// ProbeDuration reads the container duration of a media file in seconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := f.probe(ctx, path)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("no duration in container metadata for %s", path)
	}
	return d, nil
}

// ValidateWebM checks that the file holds a video stream inside a
// WebM/Matroska container.
func (f *FFmpeg) ValidateWebM(ctx context.Context, path string) error {
	out, err := f.probe(ctx, path)
	if err != nil {
		return err
	}
	hasVideo := false
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			hasVideo = true
			break
		}
	}
	if !hasVideo {
		return errs.Validation("no video stream found in file")
	}
	format := strings.ToLower(out.Format.FormatName)
	if !strings.Contains(format, "webm") && !strings.Contains(format, "matroska") {
		return errs.Validation("file is not a valid WebM format")
	}
	return nil
}

// Transcode converts an uploaded WebM into H.264/AAC MP4. Fatal on failure.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	_, err := f.run(ctx, StageTranscode, f.cfg.TranscodeTimeout, f.ffmpegPath,
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-crf", "23",
		"-preset", "medium",
		"-y", outputPath)
	return err
}

// ConvertToWAV re-encodes synthesized narration to 24kHz mono PCM so it can
// be probed and muxed reliably.
func (f *FFmpeg) ConvertToWAV(ctx context.Context, inputPath, outputPath string) error {
	_, err := f.run(ctx, StageAudio, f.cfg.AudioConvertTimeout, f.ffmpegPath,
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ar", "24000",
		"-ac", "1",
		"-y", outputPath)
	return err
}

// SceneFrame scales an image to the target resolution preserving aspect
// ratio and letterboxes it to fill the frame.
func (f *FFmpeg) SceneFrame(ctx context.Context, imagePath, outputPath string, width, height int) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height)
	_, err := f.run(ctx, StageSceneFrame, f.cfg.SceneFrameTimeout, f.ffmpegPath,
		"-i", imagePath,
		"-vf", filter,
		"-y", outputPath)
	return err
}

// BlackFrame generates a solid frame at the target resolution, the fallback
// when a source image cannot be rendered.
func (f *FFmpeg) BlackFrame(ctx context.Context, outputPath string, width, height int) error {
	_, err := f.run(ctx, StageSceneFrame, f.cfg.SceneFrameTimeout, f.ffmpegPath,
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d", width, height),
		"-vframes", "1",
		"-y", outputPath)
	return err
}

// Slideshow concatenates the playlist frames into one continuous video
// stream, optionally applying a continuous zoom across the whole stream.
func (f *FFmpeg) Slideshow(ctx context.Context, playlistPath, outputPath string, opts models.RenderOptions) error {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", playlistPath,
	}
	if opts.ZoomPan {
		args = append(args, "-vf", "zoompan=z=min(zoom+0.0015,1.5):x=(iw-iw/zoom)/2:y=(ih-ih/zoom)/2:d=250")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", outputPath)
	_, err := f.run(ctx, StageSlideshow, f.cfg.SlideshowTimeout, f.ffmpegPath, args...)
	return err
}

// BurnSubtitles renders an SRT file into the video stream.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, inputPath, subtitlePath, outputPath, font string, fontSize int) error {
	filter := fmt.Sprintf(
		"subtitles=%s:force_style='FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,Outline=2,Shadow=1'",
		subtitlePath, font, fontSize)
	_, err := f.run(ctx, StageSubtitles, f.cfg.SubtitleTimeout, f.ffmpegPath,
		"-i", inputPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", outputPath)
	return err
}

// Watermark draws fixed-position text in the top-right corner.
func (f *FFmpeg) Watermark(ctx context.Context, inputPath, text, outputPath string) error {
	filter := fmt.Sprintf(
		"drawtext=fontfile=/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf:text='%s':fontcolor=white@0.8:fontsize=24:x=w-tw-10:y=10",
		escapeDrawtext(text))
	_, err := f.run(ctx, StageWatermark, f.cfg.WatermarkTimeout, f.ffmpegPath,
		"-i", inputPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", outputPath)
	return err
}

// MuxAudio combines the video stream with the narration track, copying video
// and re-encoding audio, trimmed to the shorter of the two streams.
func (f *FFmpeg) MuxAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	_, err := f.run(ctx, StageMux, f.cfg.MuxTimeout, f.ffmpegPath,
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-y", outputPath)
	return err
}

// escapeDrawtext strips characters that would break out of the drawtext
// filter's quoted text argument.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer("'", "", ":", "\\:", "\\", "")
	return r.Replace(s)
}
