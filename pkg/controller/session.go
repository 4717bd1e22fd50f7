package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/panorama/pkg/pipeline"
)

// State is the step a run is currently in.
type State string

const (
	StatePending    State = "pending"
	StateSampling   State = "sampling"
	StateStitching  State = "stitching"
	StateCorrecting State = "correcting"
	StateWriting    State = "writing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Session is the state of one run. Only the run's worker goroutine
// changes it; other goroutines read it through Snapshot.
type Session struct {
	ID        string
	VideoPath string
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.RWMutex
	state      State
	progress   float64
	result     *pipeline.PanoramaResult
	err        error
	finishedAt time.Time
}

func newSession(parent context.Context, videoPath string) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:        uuid.NewString(),
		VideoPath: videoPath,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StatePending,
	}
}

// Cancel requests the run to stop. The run still completes through its
// completion callback, with an error wrapping context.Canceled.
func (s *Session) Cancel() {
	s.cancel()
}

// Done is closed after the completion callback has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the run is done or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID         string
	VideoPath  string
	State      State
	Progress   float64 // 0..1
	Result     *pipeline.PanoramaResult
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:         s.ID,
		VideoPath:  s.VideoPath,
		State:      s.state,
		Progress:   s.progress,
		Result:     s.result,
		Err:        s.err,
		StartedAt:  s.StartedAt,
		FinishedAt: s.finishedAt,
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setProgress(p float64) {
	s.mu.Lock()
	if p > s.progress {
		s.progress = p
	}
	s.mu.Unlock()
}

func (s *Session) finish(state State, result *pipeline.PanoramaResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.result = result
	s.err = err
	s.finishedAt = time.Now()
	if state == StateCompleted {
		s.progress = 1
	}
}
