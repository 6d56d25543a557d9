package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/blink"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

func TestEyeWithEAR(t *testing.T) {
	for _, ear := range []float64{0, 0.18, 0.3, 0.42} {
		assert.InDelta(t, ear, blink.EyeAspectRatio(EyeWithEAR(ear)), 1e-9)
	}
}

func TestProvider_DetectEyes_FollowsScript(t *testing.T) {
	p := New(0.35, NoFace, 0.2)
	ctx := context.Background()
	image := []byte("frame")

	faces, err := p.DetectEyes(ctx, image)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 0.35, blink.AverageEAR(faces[0].Left, faces[0].Right), 1e-9)

	faces, err = p.DetectEyes(ctx, image)
	require.NoError(t, err)
	assert.Empty(t, faces)

	faces, err = p.DetectEyes(ctx, image)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 0.2, blink.AverageEAR(faces[0].Left, faces[0].Right), 1e-9)

	// wraps around
	faces, err = p.DetectEyes(ctx, image)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 0.35, blink.AverageEAR(faces[0].Left, faces[0].Right), 1e-9)
}

func TestProvider_DefaultScriptProducesBlink(t *testing.T) {
	p := New()
	tracker := blink.NewTracker(blink.DefaultConfig(), nil)

	for range DefaultScript {
		faces, err := p.DetectEyes(context.Background(), []byte("frame"))
		require.NoError(t, err)
		require.Len(t, faces, 1)
		tracker.ProcessFrame(true, blink.AverageEAR(faces[0].Left, faces[0].Right))
	}

	assert.Equal(t, 1, tracker.Status().BlinkCount)
}

func TestProvider_Rewind(t *testing.T) {
	p := New(0.1, 0.2)
	_, _ = p.DetectEyes(context.Background(), []byte("frame"))
	p.Rewind()

	faces, err := p.DetectEyes(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, blink.AverageEAR(faces[0].Left, faces[0].Right), 1e-9)
}

func TestProvider_DetectEyes_Errors(t *testing.T) {
	p := New()

	_, err := p.DetectEyes(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.DetectEyes(ctx, []byte("frame"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "mock", New().Name())
}
