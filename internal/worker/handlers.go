package worker

import (
	"context"
	"fmt"
	"path/filepath"

	"reelforge/internal/artifact"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/media"
	"reelforge/internal/models"
	"reelforge/internal/render"
)

// Handlers owns the per-kind job implementations and their shared
// collaborators.
type Handlers struct {
	cfg       config.Config
	ff        *media.FFmpeg
	pipeline  *render.Pipeline
	store     *jobs.Store
	artifacts *artifact.Store
}

func NewHandlers(cfg config.Config, ff *media.FFmpeg, pl *render.Pipeline, st *jobs.Store, art *artifact.Store) *Handlers {
	return &Handlers{cfg: cfg, ff: ff, pipeline: pl, store: st, artifacts: art}
}

// Register binds every known kind on the processor.
func (h *Handlers) Register(p *Processor) {
	p.RegisterHandler(models.KindTranscode, h.HandleTranscode)
	p.RegisterHandler(models.KindProductBatch, h.HandleProductBatch)
}

// HandleTranscode converts an uploaded WebM recording to MP4 and publishes
// the result under the job's download key.
func (h *Handlers) HandleTranscode(ctx context.Context, item models.QueueItem) error {
	tmpOut := filepath.Join(h.cfg.WorkDir, fmt.Sprintf("%s.mp4", item.ID))
	if err := h.ff.Transcode(ctx, item.InputPath, tmpOut); err != nil {
		return err
	}
	key := fmt.Sprintf("converted_%s.mp4", item.ID)
	if _, err := h.artifacts.Publish(ctx, tmpOut, key); err != nil {
		return err
	}
	h.store.MarkCompleted(item.ID, "Conversion completed", "/api/download/"+item.ID)
	return nil
}

// HandleProductBatch renders every row of an uploaded product CSV and
// records the per-row manifest, completing the job even when some rows
// fail.
func (h *Handlers) HandleProductBatch(ctx context.Context, item models.QueueItem) error {
	outDir := h.artifacts.Path(filepath.Join("batch", item.ID))
	manifest, message, err := h.pipeline.ProcessBatch(ctx, item.ID, item.InputPath, outDir, item.Options)
	if len(manifest) > 0 {
		h.store.PutManifest(item.ID, manifest)
	}
	if err != nil {
		return err
	}
	h.store.MarkCompleted(item.ID, message, "/api/batch/"+item.ID)
	return nil
}
