package models

import (
	"time"
)

// JobStatus enumerates the observable lifecycle states of a tracked job.
// Transitions are one-directional: queued -> processing -> completed|error.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Queue item kinds dispatched by the worker pool.
const (
	KindTranscode    = "transcode"
	KindProductBatch = "product_batch"
)

// Job is one tracked unit of asynchronous work. Jobs live in memory for the
// lifetime of the process and are never deleted, only mutated by the worker
// that owns them.
type Job struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	DownloadURL string    `json:"download_url,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	LastUpdated time.Time `json:"timestamp"`
}

// QueueItem is the unit handed from the API to a worker. It is consumed
// exactly once and discarded after processing.
type QueueItem struct {
	ID               string        `json:"id"`
	Kind             string        `json:"kind"`
	InputPath        string        `json:"input_path"`
	OutputPath       string        `json:"output_path"`
	OriginalFilename string        `json:"original_filename"`
	Options          RenderOptions `json:"options"`
}

// RowResult is one line of a CSV batch manifest.
type RowResult struct {
	Row     int    `json:"row"`
	Title   string `json:"title"`
	Output  string `json:"output,omitempty"`
	Message string `json:"message"`
	Error   bool   `json:"error,omitempty"`
}
