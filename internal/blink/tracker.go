// Package blink turns per-frame eye-aspect-ratio measurements into a
// debounced blink count and liveness score.
package blink

import (
	"io"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

const (
	// DefaultThreshold is the EAR below which an eye is considered closed.
	DefaultThreshold = 0.30
	// DefaultMinFrames is the number of consecutive closed frames required before a reopen counts as a blink.
	DefaultMinFrames = 2
	// ScorePerBlink is added to the liveness score for every confirmed blink.
	ScorePerBlink = 10

	msgFaceProcessed = "Face processed"
	msgNoFace        = "No face detected"
)

// Config holds the tracker thresholds. They are fixed at construction.
type Config struct {
	Threshold float64
	MinFrames int
}

// DefaultConfig returns a Config with the default thresholds
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		MinFrames: DefaultMinFrames,
	}
}

// State is the mutable tracker state.
type State struct {
	ConsecutiveLowFrames int     `json:"consecutive_low_frames"`
	BlinkCount           int     `json:"blink_count"`
	LivenessScore        int     `json:"liveness_score"`
	LastEAR              float64 `json:"last_ear"`
}

// Phase labels the tracker's position in the blink state machine.
type Phase string

const (
	PhaseOpen             Phase = "open"
	PhaseClosing          Phase = "closing"
	PhaseConfirmedPending Phase = "confirmed_pending"
)

// Tracker is safe for concurrent use; every operation holds a single mutex.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker in the Open phase with zeroed counters.
// Non-positive config values fall back to the defaults. A nil logger discards output.
func NewTracker(cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MinFrames <= 0 {
		cfg.MinFrames = DefaultMinFrames
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Tracker{
		cfg:    cfg,
		logger: logger.With("component", "blink_tracker"),
	}
}

// Config returns the thresholds the tracker was built with.
func (t *Tracker) Config() Config {
	return t.cfg
}

// ProcessFrame advances the state machine by one frame.
//
// Without a face nothing changes: LastEAR keeps its value, but the outcome
// reports an EAR of 0. With a face, LastEAR becomes avgEAR; a value below the
// threshold extends the closed run, and a value at or above it closes the run,
// confirming a blink when the run reached MinFrames.
func (t *Tracker) ProcessFrame(faceFound bool, avgEAR float64) domain.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !faceFound {
		return domain.Outcome{
			Kind:    domain.OutcomeNoFace,
			Message: msgNoFace,
			Status: domain.Status{
				BlinkCount:    t.state.BlinkCount,
				LivenessScore: t.state.LivenessScore,
				EAR:           0,
			},
		}
	}

	t.state.LastEAR = avgEAR
	confirmed := false

	if avgEAR < t.cfg.Threshold {
		t.state.ConsecutiveLowFrames++
		t.logger.Debug("eye closed frame",
			slog.Float64("ear", avgEAR),
			slog.Int("low_frames", t.state.ConsecutiveLowFrames),
			slog.Int("min_frames", t.cfg.MinFrames),
		)
	} else {
		if t.state.ConsecutiveLowFrames >= t.cfg.MinFrames {
			t.state.BlinkCount++
			t.state.LivenessScore += ScorePerBlink
			confirmed = true
			t.logger.Info("blink detected",
				slog.Int("blink_count", t.state.BlinkCount),
				slog.Int("liveness_score", t.state.LivenessScore),
			)
		}
		t.state.ConsecutiveLowFrames = 0
	}

	return domain.Outcome{
		Kind:           domain.OutcomeSuccess,
		Message:        msgFaceProcessed,
		Status:         t.statusLocked(),
		BlinkConfirmed: confirmed,
	}
}

// Reset zeroes every counter and returns the status it left behind.
func (t *Tracker) Reset() domain.Status {
	t.mu.Lock()
	t.state = State{}
	status := t.statusLocked()
	t.mu.Unlock()

	t.logger.Info("tracker reset: all counters set to zero")
	return status
}

// Status returns the current counters and the last remembered EAR.
func (t *Tracker) Status() domain.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.statusLocked()
}

// State returns a copy of the full tracker state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Phase derives the state machine label from the closed-frame run.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.phaseLocked()
}

// Snapshot returns the status and the phase read under the same lock.
func (t *Tracker) Snapshot() (domain.Status, Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.statusLocked(), t.phaseLocked()
}

func (t *Tracker) phaseLocked() Phase {
	switch n := t.state.ConsecutiveLowFrames; {
	case n == 0:
		return PhaseOpen
	case n < t.cfg.MinFrames:
		return PhaseClosing
	default:
		return PhaseConfirmedPending
	}
}

func (t *Tracker) statusLocked() domain.Status {
	return domain.Status{
		BlinkCount:    t.state.BlinkCount,
		LivenessScore: t.state.LivenessScore,
		EAR:           t.state.LastEAR,
	}
}
