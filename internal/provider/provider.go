package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

// LandmarkProvider is the external face-landmark estimator.
type LandmarkProvider interface {
	// Name identifies the provider in logs and audit events
	Name() string

	// DetectEyes finds faces in an encoded image and returns the six-point
	// landmark set of each eye. An image without faces yields an empty slice,
	// not an error.
	DetectEyes(ctx context.Context, image []byte) ([]FaceEyes, error)
}

// FaceEyes holds the eye landmarks of one detected face
type FaceEyes struct {
	Left        domain.EyeLandmarkSet `json:"left"`
	Right       domain.EyeLandmarkSet `json:"right"`
	BoundingBox BoundingBox           `json:"bounding_box"`
	Confidence  float64               `json:"confidence"`
}

// BoundingBox represents the face area in normalized image coordinates
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
