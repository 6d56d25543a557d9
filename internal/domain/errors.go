package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies produced by WithError still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: http.StatusInternalServerError,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "No frame data received",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidFrame = &AppError{
		Code:       "INVALID_FRAME",
		Message:    "Invalid frame received",
		StatusCode: http.StatusBadRequest,
	}

	ErrFrameTooLarge = &AppError{
		Code:       "FRAME_TOO_LARGE",
		Message:    "Frame exceeds the maximum allowed size",
		StatusCode: http.StatusBadRequest,
	}

	// Non-fatal: the landmark estimator failed on this frame; the client sends the next one.
	ErrLandmarkUnavailable = &AppError{
		Code:       "LANDMARK_UNAVAILABLE",
		Message:    "Landmark estimation failed",
		StatusCode: http.StatusOK,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrEventsDisabled = &AppError{
		Code:       "EVENTS_DISABLED",
		Message:    "Event log is not configured",
		StatusCode: http.StatusNotFound,
	}
)

// IsNonFatal reports whether err is a per-frame condition that should be
// answered with 200 and the unchanged counters. A frame without a face is not
// an error at all; it comes back as domain.OutcomeNoFace.
func IsNonFatal(err error) bool {
	return errors.Is(err, ErrLandmarkUnavailable)
}
