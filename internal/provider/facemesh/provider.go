package facemesh

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
)

// Mesh indices of the six EAR points per eye, in EyeLandmarkSet order.
var (
	LeftEyeIndices  = [6]int{33, 160, 158, 133, 153, 144}
	RightEyeIndices = [6]int{362, 385, 387, 263, 373, 380}
)

// minMeshSize is the number of vertices every index above must fit in
const minMeshSize = 388

// Provider implements provider.LandmarkProvider using a FaceMesh sidecar
type Provider struct {
	client *Client
}

// NewProvider creates a new FaceMesh provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "facemesh"
}

// DetectEyes runs the mesh and extracts the EAR landmarks of every face
func (p *Provider) DetectEyes(ctx context.Context, image []byte) ([]provider.FaceEyes, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Landmarks(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect eyes: %w", err)
	}

	faces := make([]provider.FaceEyes, 0, len(resp.Results))
	for i, result := range resp.Results {
		if len(result.Landmarks) < minMeshSize {
			return nil, fmt.Errorf("face %d: %w (%d < %d)", i, ErrIncompleteMesh, len(result.Landmarks), minMeshSize)
		}

		faces = append(faces, provider.FaceEyes{
			Left:  pick(result.Landmarks, LeftEyeIndices),
			Right: pick(result.Landmarks, RightEyeIndices),
			BoundingBox: provider.BoundingBox{
				X:      result.BoundingBox.X,
				Y:      result.BoundingBox.Y,
				Width:  result.BoundingBox.W,
				Height: result.BoundingBox.H,
			},
			Confidence: result.Score,
		})
	}

	return faces, nil
}

// Ping checks sidecar reachability
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func pick(mesh []Landmark, indices [6]int) domain.EyeLandmarkSet {
	var eye domain.EyeLandmarkSet
	for i, idx := range indices {
		eye[i] = domain.Point{X: mesh[idx].X, Y: mesh[idx].Y}
	}
	return eye
}

// Ensure Provider implements provider.LandmarkProvider
var _ provider.LandmarkProvider = (*Provider)(nil)
