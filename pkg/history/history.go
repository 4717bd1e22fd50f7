// Package history records finished panorama runs.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("history: record not found")

// Status is the final state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Record describes one finished run.
type Record struct {
	ID        string `json:"id"`
	VideoPath string `json:"video_path"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`

	// StitchStatus is the raw capability status for stitch failures.
	StitchStatus *int `json:"stitch_status,omitempty"`

	Stitcher      string `json:"stitcher"`
	FrameCount    int    `json:"frame_count"`
	SampledFrames int    `json:"sampled_frames"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`

	SourceDuration time.Duration `json:"source_duration"`
	ProcessingTime time.Duration `json:"processing_time"`

	OutputPath string `json:"output_path,omitempty"`
	ObjectURL  string `json:"object_url,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Repository stores run records.
type Repository interface {
	// Save inserts or replaces the record with the same ID.
	Save(ctx context.Context, rec Record) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns up to limit records, most recently finished first.
	// A limit <= 0 returns every record.
	List(ctx context.Context, limit int) ([]Record, error)
}
