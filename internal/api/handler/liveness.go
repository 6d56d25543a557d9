package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/repository"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/service"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/ws"
)

// LivenessService is the frame pipeline the handler drives
type LivenessService interface {
	ProcessFrame(ctx context.Context, payload string, meta service.RequestMeta) (domain.Outcome, error)
	Reset(ctx context.Context, meta service.RequestMeta) domain.Status
	Report() service.StatusReport
	RecentEvents(ctx context.Context, limit int) ([]audit.Event, error)
}

// LivenessHandler serves the detect, reset, status and events endpoints
type LivenessHandler struct {
	service   LivenessService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewLivenessHandler(svc LivenessService, logger *slog.Logger) *LivenessHandler {
	return &LivenessHandler{
		service:   svc,
		validator: validator.New(),
		logger:    logger,
	}
}

// DetectRequest is the body of POST /detect
type DetectRequest struct {
	Frame string `json:"frame" validate:"required"`
}

// DetectResponse is returned when the frame contained a face
type DetectResponse struct {
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	BlinkCount    int     `json:"blink_count"`
	LivenessScore int     `json:"liveness_score"`
	EAR           float64 `json:"ear"`
}

// FrameErrorResponse reports a frame that could not be used, with 200 and the current counters
type FrameErrorResponse struct {
	Error         string `json:"error"`
	BlinkCount    int    `json:"blink_count"`
	LivenessScore int    `json:"liveness_score"`
}

// ErrorResponse is the body of every non-200 answer
type ErrorResponse struct {
	Error string `json:"error"`
}

type ResetResponse struct {
	Status        string `json:"status"`
	BlinkCount    int    `json:"blink_count"`
	LivenessScore int    `json:"liveness_score"`
}

type EventsResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

// Detect handles POST /detect
func (h *LivenessHandler) Detect(c *fiber.Ctx) error {
	var req DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if err := h.validator.Struct(req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	status, body, err := h.processFrame(c.UserContext(), req.Frame, requestMeta(c))
	if err != nil {
		return err
	}

	return c.Status(status).JSON(body)
}

// StreamFrame answers one websocket frame with the body POST /detect would return
func (h *LivenessHandler) StreamFrame(ctx context.Context, payload string, meta ws.ConnMeta) interface{} {
	_, body, err := h.processFrame(ctx, payload, service.RequestMeta{
		RequestID: meta.RequestID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	if err == nil {
		return body
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{Error: appErr.Message}
	}
	return ErrorResponse{Error: domain.ErrInternal.Message}
}

func (h *LivenessHandler) processFrame(ctx context.Context, payload string, meta service.RequestMeta) (int, interface{}, error) {
	outcome, err := h.service.ProcessFrame(ctx, payload, meta)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && domain.IsNonFatal(appErr) {
			h.logger.Warn("detection issue", "error", err, "request_id", meta.RequestID)
			return fiber.StatusOK, FrameErrorResponse{
				Error:         appErr.Message,
				BlinkCount:    outcome.Status.BlinkCount,
				LivenessScore: outcome.Status.LivenessScore,
			}, nil
		}
		return 0, nil, err
	}

	if !outcome.Success() {
		return fiber.StatusOK, FrameErrorResponse{
			Error:         outcome.Message,
			BlinkCount:    outcome.Status.BlinkCount,
			LivenessScore: outcome.Status.LivenessScore,
		}, nil
	}

	h.logger.Debug("processed frame",
		"blink_count", outcome.Status.BlinkCount,
		"liveness_score", outcome.Status.LivenessScore,
		"ear", outcome.Status.EAR,
	)

	return fiber.StatusOK, DetectResponse{
		Status:        string(outcome.Kind),
		Message:       outcome.Message,
		BlinkCount:    outcome.Status.BlinkCount,
		LivenessScore: outcome.Status.LivenessScore,
		EAR:           outcome.Status.EAR,
	}, nil
}

// Reset handles POST /reset
func (h *LivenessHandler) Reset(c *fiber.Ctx) error {
	status := h.service.Reset(c.UserContext(), requestMeta(c))

	return c.JSON(ResetResponse{
		Status:        "reset",
		BlinkCount:    status.BlinkCount,
		LivenessScore: status.LivenessScore,
	})
}

// Status handles GET /status
func (h *LivenessHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.service.Report())
}

// Events handles GET /v1/events
func (h *LivenessHandler) Events(c *fiber.Ctx) error {
	limit := repository.ClampLimit(c.QueryInt("limit", repository.DefaultListLimit))

	events, err := h.service.RecentEvents(c.UserContext(), limit)
	if err != nil {
		return err
	}

	return c.JSON(EventsResponse{
		Events: events,
		Count:  len(events),
	})
}

func requestMeta(c *fiber.Ctx) service.RequestMeta {
	meta := service.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if id, ok := c.Locals("requestid").(string); ok {
		meta.RequestID = id
	}
	return meta
}
