package blink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

// eyeWithEAR builds a 0.2-wide eye whose two lid gaps give the requested ratio.
func eyeWithEAR(ear float64) domain.EyeLandmarkSet {
	const (
		left  = 0.40
		width = 0.20
		midY  = 0.50
	)
	gap := ear * width
	return domain.EyeLandmarkSet{
		{X: left, Y: midY},
		{X: left + width/3, Y: midY - gap/2},
		{X: left + 2*width/3, Y: midY - gap/2},
		{X: left + width, Y: midY},
		{X: left + 2*width/3, Y: midY + gap/2},
		{X: left + width/3, Y: midY + gap/2},
	}
}

func TestEyeAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		eye  domain.EyeLandmarkSet
		want float64
	}{
		{
			name: "open eye",
			eye:  eyeWithEAR(0.35),
			want: 0.35,
		},
		{
			name: "closed eye",
			eye:  eyeWithEAR(0),
			want: 0,
		},
		{
			name: "asymmetric lids",
			eye: domain.EyeLandmarkSet{
				{X: 0, Y: 0},
				{X: 1, Y: 1},
				{X: 2, Y: 2},
				{X: 4, Y: 0},
				{X: 2, Y: -2},
				{X: 1, Y: -1},
			},
			// A = 2, B = 4, C = 4
			want: 0.75,
		},
		{
			name: "degenerate corners returns zero",
			eye: domain.EyeLandmarkSet{
				{X: 0.5, Y: 0.5},
				{X: 0.5, Y: 0.1},
				{X: 0.6, Y: 0.1},
				{X: 0.5, Y: 0.5},
				{X: 0.6, Y: 0.9},
				{X: 0.5, Y: 0.9},
			},
			want: 0,
		},
		{
			name: "all points identical",
			eye:  domain.EyeLandmarkSet{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EyeAspectRatio(tt.eye)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEyeAspectRatio_NonNegativeAndFinite(t *testing.T) {
	for _, ear := range []float64{0, 0.01, 0.1, 0.29, 0.3, 0.5, 1, 2.5} {
		got := EyeAspectRatio(eyeWithEAR(ear))
		assert.GreaterOrEqual(t, got, 0.0)
		assert.False(t, math.IsInf(got, 0) || math.IsNaN(got), "ear %v produced %v", ear, got)
	}
}

func TestAverageEAR(t *testing.T) {
	got := AverageEAR(eyeWithEAR(0.2), eyeWithEAR(0.4))
	assert.InDelta(t, 0.3, got, 1e-9)
}
