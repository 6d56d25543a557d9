package blink

import (
	"math"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

// EyeAspectRatio computes (|p1-p5| + |p2-p4|) / (2 * |p0-p3|).
// Degenerate eyes with zero corner distance yield 0.
func EyeAspectRatio(eye domain.EyeLandmarkSet) float64 {
	a := distance(eye[1], eye[5])
	b := distance(eye[2], eye[4])
	c := distance(eye[0], eye[3])

	if c == 0 {
		return 0
	}

	return (a + b) / (2.0 * c)
}

// AverageEAR is the mean EAR of both eyes.
func AverageEAR(left, right domain.EyeLandmarkSet) float64 {
	return (EyeAspectRatio(left) + EyeAspectRatio(right)) / 2.0
}

func distance(p, q domain.Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
