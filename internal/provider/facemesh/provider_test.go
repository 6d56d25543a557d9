package facemesh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.LandmarkProvider = (*Provider)(nil)
}

// meshWithMarkers returns a mesh where vertex i sits at (i/1000, i/2000)
func meshWithMarkers(size int) []Landmark {
	mesh := make([]Landmark, size)
	for i := range mesh {
		mesh[i] = Landmark{X: float64(i) / 1000, Y: float64(i) / 2000}
	}
	return mesh
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewProvider(testConfig(server.URL))
}

func TestProvider_DetectEyes(t *testing.T) {
	image := []byte("jpeg-bytes")

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req LandmarksRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Img)

		_ = json.NewEncoder(w).Encode(LandmarksResponse{
			Results: []FaceResult{
				{
					Landmarks:   meshWithMarkers(478),
					BoundingBox: BoundingBox{X: 0.2, Y: 0.1, W: 0.5, H: 0.6},
					Score:       0.93,
				},
			},
		})
	})

	faces, err := p.DetectEyes(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, faces, 1)

	face := faces[0]
	for i, idx := range LeftEyeIndices {
		assert.Equal(t, domain.Point{X: float64(idx) / 1000, Y: float64(idx) / 2000}, face.Left[i], "left point %d", i)
	}
	for i, idx := range RightEyeIndices {
		assert.Equal(t, domain.Point{X: float64(idx) / 1000, Y: float64(idx) / 2000}, face.Right[i], "right point %d", i)
	}
	assert.Equal(t, provider.BoundingBox{X: 0.2, Y: 0.1, Width: 0.5, Height: 0.6}, face.BoundingBox)
	assert.Equal(t, 0.93, face.Confidence)
}

func TestProvider_DetectEyes_NoFace(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(LandmarksResponse{})
	})

	faces, err := p.DetectEyes(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestProvider_DetectEyes_IncompleteMesh(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(LandmarksResponse{
			Results: []FaceResult{{Landmarks: meshWithMarkers(100)}},
		})
	})

	_, err := p.DetectEyes(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteMesh)
}

func TestProvider_DetectEyes_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.DetectEyes(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "detect eyes")
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "facemesh", NewProvider(DefaultConfig()).Name())
}
