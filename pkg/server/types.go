// Package server provides the HTTP API for starting, polling and cancelling
// panorama runs.
package server

import "github.com/user/panorama/pkg/history"

// CreatePanoramaRequest is the HTTP request body for starting a run.
type CreatePanoramaRequest struct {
	// VideoPath is the server-side path of the source video.
	VideoPath string `json:"video_path" validate:"required"`
	// MaxFrames bounds the sampled frames. Omitted means the server default,
	// 0 means unbounded.
	MaxFrames *int `json:"max_frames" validate:"omitempty,min=0,max=500"`
}

// CreatePanoramaResponse is the HTTP response after starting a run.
type CreatePanoramaResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PanoramaResponse describes a run.
type PanoramaResponse struct {
	ID        string `json:"id"`
	VideoPath string `json:"video_path"`
	Status    string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
	// StitchStatus is the raw capability status of a stitch failure.
	StitchStatus *int `json:"stitch_status,omitempty"`

	SourceDurationSeconds float64 `json:"source_duration_seconds"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`

	SampledFrames int    `json:"sampled_frames,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	OutputPath    string `json:"output_path,omitempty"`
	ObjectURL     string `json:"object_url,omitempty"`
}

// ListPanoramasResponse lists the runs known to this process.
type ListPanoramasResponse struct {
	Panoramas []PanoramaResponse `json:"panoramas"`
}

// HistoryResponse lists recorded runs.
type HistoryResponse struct {
	Records []history.Record `json:"records"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
