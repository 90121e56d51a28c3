// Package api exposes the upload and status endpoints for the conversion
// service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reelforge/internal/artifact"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/media"
	"reelforge/internal/models"
	"reelforge/internal/queue"
	"reelforge/internal/ratelimit"
	"reelforge/internal/telemetry"
)

// Server wires the HTTP handlers.
type Server struct {
	cfg       config.Config
	store     *jobs.Store
	queue     queue.Queue
	ff        *media.FFmpeg
	artifacts *artifact.Store
	limiter   *ratelimit.Limiter
	newID     func() string
}

// New constructs the API server. limiter may be nil, which disables upload
// rate limiting.
func New(cfg config.Config, st *jobs.Store, q queue.Queue, ff *media.FFmpeg, art *artifact.Store, limiter *ratelimit.Limiter) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		queue:     q,
		ff:        ff,
		artifacts: art,
		limiter:   limiter,
		newID:     uuid.NewString,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Post("/api/convert", s.handleConvert)
	r.Post("/api/products", s.handleProducts)
	r.Get("/api/status/{id}", s.handleStatus)
	r.Get("/api/queue", s.handleQueue)
	r.Get("/api/batch/{id}", s.handleBatch)
	r.Get("/api/download/{id}", s.handleDownload)
	return r
}

// handleConvert accepts a WebM recording, validates it, and queues the
// transcode. The upload is rejected before it is tracked, so invalid files
// never create a job.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "video file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if !strings.EqualFold(filepath.Ext(header.Filename), ".webm") {
		http.Error(w, "only .webm uploads are accepted", http.StatusBadRequest)
		return
	}

	id := s.newID()
	uploadPath, err := s.saveUpload(file, id+".webm")
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := s.ff.ValidateWebM(r.Context(), uploadPath); err != nil {
		_ = os.Remove(uploadPath)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.store.Create(id, header.Filename)
	item := models.QueueItem{
		ID:               id,
		Kind:             models.KindTranscode,
		InputPath:        uploadPath,
		OriginalFilename: header.Filename,
	}
	if !s.enqueue(w, r, item) {
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// handleProducts accepts a product CSV plus optional render settings and
// queues one batch job covering every row.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "csv file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		http.Error(w, "only .csv uploads are accepted", http.StatusBadRequest)
		return
	}

	id := s.newID()
	uploadPath, err := s.saveUpload(file, id+".csv")
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	job := s.store.Create(id, header.Filename)
	item := models.QueueItem{
		ID:               id,
		Kind:             models.KindProductBatch,
		InputPath:        uploadPath,
		OriginalFilename: header.Filename,
		Options:          s.renderOptions(r),
	}
	if !s.enqueue(w, r, item) {
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// renderOptions applies form overrides on top of the defaults.
func (s *Server) renderOptions(r *http.Request) models.RenderOptions {
	opts := models.DefaultRenderOptions()
	if s.cfg.DefaultVoice != "" {
		opts.Voice = s.cfg.DefaultVoice
	}
	if v := r.FormValue("voice"); v != "" {
		opts.Voice = v
	}
	if v := r.FormValue("watermark"); v != "" {
		opts.Watermark = v
	}
	if v := r.FormValue("outro_text"); v != "" {
		opts.OutroText = v
	}
	if v := r.FormValue("font"); v != "" {
		opts.Font = v
	}
	if v := r.FormValue("font_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.FontSize = n
		}
	}
	if v := r.FormValue("show_subtitles"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.ShowSubtitles = b
		}
	}
	if v := r.FormValue("zoom_pan"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.ZoomPan = b
		}
	}
	if v := r.FormValue("scene_duration"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			opts.SceneDuration = f
		}
	}
	return opts
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	depth, err := s.queue.Depth(r.Context())
	if err != nil {
		http.Error(w, "failed to read queue depth", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"queue_depth":  depth,
		"tracked_jobs": s.store.Count(),
		"processing":   s.store.CountProcessing(),
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	rows, err := s.store.Manifest(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":  job,
		"rows": rows,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	name := fmt.Sprintf("converted_%s.mp4", id)
	path := s.artifacts.Path(name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "converted file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

// enqueue pushes the item, rolling the job to error state when the queue
// rejects it. Reports whether the caller may respond with success.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, item models.QueueItem) bool {
	if err := s.queue.Enqueue(r.Context(), item); err != nil {
		s.store.MarkError(item.ID, "could not be queued")
		_ = os.Remove(item.InputPath)
		if errors.Is(err, queue.ErrQueueFull) {
			http.Error(w, "conversion queue is full, try again later", http.StatusServiceUnavailable)
			return false
		}
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return false
	}
	telemetry.EnqueueCounter.Inc()
	return true
}

func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	dir := filepath.Join(s.cfg.WorkDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// allow enforces the optional per-client upload rate limit.
func (s *Server) allow(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		http.Error(w, "rate limit error", http.StatusInternalServerError)
		return false
	}
	if !allowed {
		telemetry.RateLimitRejects.Inc()
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return false
	}
	return true
}

func clientKey(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if i := strings.IndexByte(v, ','); i >= 0 {
			return strings.TrimSpace(v[:i])
		}
		return strings.TrimSpace(v)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
