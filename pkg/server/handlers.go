package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/user/panorama/pkg/controller"
	"github.com/user/panorama/pkg/history"
	"github.com/user/panorama/pkg/metrics"
	"github.com/user/panorama/pkg/pipeline"
)

const defaultHistoryLimit = 50

// Handlers contains the HTTP handlers for the panorama API.
type Handlers struct {
	controller *controller.Controller
	registry   *controller.Registry
	history    history.Repository
	metrics    *metrics.Recorder
	validator  *validator.Validate
	logger     *slog.Logger

	defaultMaxFrames int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithDefaultMaxFrames sets the frame cap used when a request omits it.
func WithDefaultMaxFrames(n int) Option {
	return func(h *Handlers) {
		h.defaultMaxFrames = n
	}
}

// NewHandlers creates a new Handlers instance. hist and rec may be nil.
func NewHandlers(ctrl *controller.Controller, registry *controller.Registry, hist history.Repository, rec *metrics.Recorder, logger *slog.Logger, opts ...Option) *Handlers {
	h := &Handlers{
		controller:       ctrl,
		registry:         registry,
		history:          hist,
		metrics:          rec,
		validator:        validator.New(),
		logger:           logger,
		defaultMaxFrames: pipeline.DefaultMaxFrames,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreatePanorama handles POST /panoramas.
func (h *Handlers) CreatePanorama(w http.ResponseWriter, r *http.Request) {
	var req CreatePanoramaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	maxFrames := h.defaultMaxFrames
	if req.MaxFrames != nil {
		maxFrames = *req.MaxFrames
	}

	// The run outlives the request.
	ctx := context.WithoutCancel(r.Context())
	session := h.controller.Run(ctx, req.VideoPath, maxFrames, nil, func(result pipeline.PanoramaResult, err error) {
		if err != nil {
			h.logger.Warn("panorama run failed",
				slog.String("video_path", req.VideoPath),
				slog.String("error", err.Error()),
			)
			return
		}
		h.logger.Info("panorama run completed",
			slog.String("id", result.SessionID),
			slog.Int("width", result.Width()),
			slog.Int("height", result.Height()),
		)
	})
	h.registry.Add(session)

	h.logger.Info("panorama run started",
		slog.String("id", session.ID),
		slog.String("video_path", req.VideoPath),
		slog.Int("max_frames", maxFrames),
	)

	writeJSON(w, http.StatusAccepted, CreatePanoramaResponse{
		ID:     session.ID,
		Status: string(session.Snapshot().State),
	})
}

// ListPanoramas handles GET /panoramas.
func (h *Handlers) ListPanoramas(w http.ResponseWriter, r *http.Request) {
	snaps := h.registry.List()
	resp := ListPanoramasResponse{Panoramas: make([]PanoramaResponse, 0, len(snaps))}
	for _, snap := range snaps {
		resp.Panoramas = append(resp.Panoramas, fromSnapshot(snap))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPanorama handles GET /panoramas/{id}.
func (h *Handlers) GetPanorama(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if session, ok := h.registry.Get(id); ok {
		writeJSON(w, http.StatusOK, fromSnapshot(session.Snapshot()))
		return
	}

	if h.history != nil {
		rec, err := h.history.Get(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, fromRecord(rec))
			return
		}
		if !errors.Is(err, history.ErrNotFound) {
			h.logger.Error("history lookup failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "history lookup failed", "INTERNAL_ERROR")
			return
		}
	}

	writeError(w, http.StatusNotFound, "panorama not found", "NOT_FOUND")
}

// GetImage handles GET /panoramas/{id}/image.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "panorama not found", "NOT_FOUND")
		return
	}

	snap := session.Snapshot()
	if !snap.State.Terminal() {
		writeError(w, http.StatusConflict, "panorama is not finished", "NOT_READY")
		return
	}
	if snap.Result == nil || len(snap.Result.Encoded) == 0 {
		writeError(w, http.StatusNotFound, "panorama has no image", "NO_IMAGE")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Result.Encoded)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Result.Encoded)
}

// CancelPanorama handles DELETE /panoramas/{id}.
func (h *Handlers) CancelPanorama(w http.ResponseWriter, r *http.Request) {
	session, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "panorama not found", "NOT_FOUND")
		return
	}

	if session.Snapshot().State.Terminal() {
		writeError(w, http.StatusConflict, "panorama already finished", "ALREADY_FINISHED")
		return
	}

	session.Cancel()
	h.logger.Info("panorama run cancelled", slog.String("id", session.ID))

	writeJSON(w, http.StatusAccepted, CreatePanoramaResponse{
		ID:     session.ID,
		Status: "cancelling",
	})
}

// ListHistory handles GET /history.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Records: []history.Record{}})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "VALIDATION_ERROR")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("history list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "history list failed", "INTERNAL_ERROR")
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Records: records})
}

func fromSnapshot(snap controller.Snapshot) PanoramaResponse {
	resp := PanoramaResponse{
		ID:        snap.ID,
		VideoPath: snap.VideoPath,
		Status:    string(snap.State),
		Progress:  int(math.Round(snap.Progress * 100)),
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
		if status, ok := pipeline.StitchStatusOf(snap.Err); ok {
			code := int(status)
			resp.StitchStatus = &code
		}
	}
	if res := snap.Result; res != nil {
		resp.SourceDurationSeconds = res.SourceDuration.Seconds()
		resp.ProcessingTimeSeconds = res.ProcessingTime.Seconds()
		resp.SampledFrames = res.SampledFrames
		resp.Width = res.Width()
		resp.Height = res.Height()
		resp.OutputPath = res.OutputPath
		resp.ObjectURL = res.ObjectURL
	}
	return resp
}

func fromRecord(rec history.Record) PanoramaResponse {
	resp := PanoramaResponse{
		ID:                    rec.ID,
		VideoPath:             rec.VideoPath,
		Status:                string(rec.Status),
		Error:                 rec.Error,
		StitchStatus:          rec.StitchStatus,
		SourceDurationSeconds: rec.SourceDuration.Seconds(),
		ProcessingTimeSeconds: rec.ProcessingTime.Seconds(),
		SampledFrames:         rec.SampledFrames,
		Width:                 rec.Width,
		Height:                rec.Height,
		OutputPath:            rec.OutputPath,
		ObjectURL:             rec.ObjectURL,
	}
	if rec.Status == history.StatusCompleted {
		resp.Progress = 100
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
