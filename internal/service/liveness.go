package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/blink"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/frame"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/ws"
)

const DefaultVerifiedScore = 30

// Broadcaster publishes tracker events to live subscribers
type Broadcaster interface {
	Broadcast(eventType ws.EventType, data interface{})
}

// EventReader lists persisted liveness events
type EventReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// RequestMeta identifies the caller of a tracker operation
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// StatusReport is the tracker snapshot plus derived fields
type StatusReport struct {
	domain.Status
	Verified bool   `json:"verified"`
	Phase    string `json:"phase"`
}

// LivenessService runs the frame pipeline against the single process-wide tracker
type LivenessService struct {
	tracker       *blink.Tracker
	provider      provider.LandmarkProvider
	auditLogger   audit.Logger
	broadcaster   Broadcaster
	events        EventReader
	frameOpts     frame.Options
	verifiedScore int
	logger        *slog.Logger
}

func NewLivenessService(tracker *blink.Tracker, landmarkProvider provider.LandmarkProvider) *LivenessService {
	return &LivenessService{
		tracker:       tracker,
		provider:      landmarkProvider,
		auditLogger:   &audit.NoOpLogger{},
		frameOpts:     frame.DefaultOptions(),
		verifiedScore: DefaultVerifiedScore,
		logger:        slog.New(slog.DiscardHandler),
	}
}

func (s *LivenessService) WithAuditLogger(l audit.Logger) *LivenessService {
	s.auditLogger = l
	return s
}

func (s *LivenessService) WithBroadcaster(b Broadcaster) *LivenessService {
	s.broadcaster = b
	return s
}

func (s *LivenessService) WithEventReader(r EventReader) *LivenessService {
	s.events = r
	return s
}

func (s *LivenessService) WithFrameOptions(opts frame.Options) *LivenessService {
	s.frameOpts = opts
	return s
}

func (s *LivenessService) WithVerifiedScore(score int) *LivenessService {
	if score > 0 {
		s.verifiedScore = score
	}
	return s
}

func (s *LivenessService) WithLogger(logger *slog.Logger) *LivenessService {
	s.logger = logger.With("component", "liveness_service")
	return s
}

// ProviderName reports which landmark estimator backs the pipeline
func (s *LivenessService) ProviderName() string {
	return s.provider.Name()
}

// ProcessFrame decodes one payload, estimates landmarks and feeds the tracker.
//
// Decode failures return a 400 AppError and leave the tracker untouched.
// Landmark failures return domain.ErrLandmarkUnavailable together with an
// outcome carrying the current counters.
func (s *LivenessService) ProcessFrame(ctx context.Context, payload string, meta RequestMeta) (domain.Outcome, error) {
	f, err := frame.Decode(payload, s.frameOpts)
	if err != nil {
		return domain.Outcome{}, err
	}

	faces, err := s.provider.DetectEyes(ctx, f.JPEG)
	if err != nil {
		return s.landmarkFailure(ctx, err)
	}

	if len(faces) == 0 {
		return s.tracker.ProcessFrame(false, 0), nil
	}

	// only the first face is tracked
	ear := blink.AverageEAR(faces[0].Left, faces[0].Right)
	outcome := s.tracker.ProcessFrame(true, ear)

	if outcome.BlinkConfirmed {
		s.onBlinkConfirmed(ctx, outcome.Status, meta)
	}
	s.broadcast(ws.EventStatusUpdated, s.Report())

	return outcome, nil
}

func (s *LivenessService) landmarkFailure(ctx context.Context, err error) (domain.Outcome, error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && !domain.IsNonFatal(appErr) {
		return domain.Outcome{}, appErr
	}
	if ctx.Err() != nil {
		return domain.Outcome{}, domain.ErrInternal.WithError(fmt.Errorf("detect eyes: %w", ctx.Err()))
	}

	s.logger.WarnContext(ctx, "landmark estimation failed",
		slog.String("provider", s.provider.Name()),
		slog.String("error", err.Error()),
	)

	return domain.Outcome{Status: s.tracker.Status()}, domain.ErrLandmarkUnavailable.WithError(err)
}

func (s *LivenessService) onBlinkConfirmed(ctx context.Context, status domain.Status, meta RequestMeta) {
	s.record(ctx, audit.EventBlinkConfirmed, status, meta)
	s.broadcast(ws.EventBlinkConfirmed, status)

	// The score moves by ScorePerBlink, so the threshold is crossed on exactly one blink.
	if status.LivenessScore >= s.verifiedScore && status.LivenessScore-blink.ScorePerBlink < s.verifiedScore {
		s.logger.InfoContext(ctx, "liveness verified",
			slog.Int("blink_count", status.BlinkCount),
			slog.Int("liveness_score", status.LivenessScore),
		)
		s.record(ctx, audit.EventVerified, status, meta)
		// a confirmed blink always ends the closed run
		s.broadcast(ws.EventVerified, s.report(status, blink.PhaseOpen))
	}
}

// Reset zeroes the tracker and returns the new status
func (s *LivenessService) Reset(ctx context.Context, meta RequestMeta) domain.Status {
	status := s.tracker.Reset()

	s.record(ctx, audit.EventTrackerReset, status, meta)
	s.broadcast(ws.EventTrackerReset, s.report(status, blink.PhaseOpen))

	return status
}

func (s *LivenessService) Status() domain.Status {
	return s.tracker.Status()
}

// Verified reports whether the liveness score reached the verified score
func (s *LivenessService) Verified() bool {
	return s.tracker.Status().LivenessScore >= s.verifiedScore
}

func (s *LivenessService) Report() StatusReport {
	return s.report(s.tracker.Snapshot())
}

func (s *LivenessService) report(status domain.Status, phase blink.Phase) StatusReport {
	return StatusReport{
		Status:   status,
		Verified: status.LivenessScore >= s.verifiedScore,
		Phase:    string(phase),
	}
}

// RecentEvents lists persisted events, newest first
func (s *LivenessService) RecentEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.events == nil {
		return nil, domain.ErrEventsDisabled
	}

	events, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}
	return events, nil
}

func (s *LivenessService) record(ctx context.Context, eventType audit.EventType, status domain.Status, meta RequestMeta) {
	err := s.auditLogger.Log(ctx, audit.Event{
		EventType:     eventType,
		Provider:      s.provider.Name(),
		BlinkCount:    status.BlinkCount,
		LivenessScore: status.LivenessScore,
		EAR:           status.EAR,
		RequestID:     meta.RequestID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *LivenessService) broadcast(eventType ws.EventType, data interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(eventType, data)
	}
}
