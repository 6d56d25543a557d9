package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// eyeLandmarks names the four Rekognition points that describe one eye
type eyeLandmarks struct {
	corner1, corner2, up, down types.LandmarkType
}

var (
	leftEye = eyeLandmarks{
		corner1: types.LandmarkTypeLeftEyeLeft,
		corner2: types.LandmarkTypeLeftEyeRight,
		up:      types.LandmarkTypeLeftEyeUp,
		down:    types.LandmarkTypeLeftEyeDown,
	}
	rightEye = eyeLandmarks{
		corner1: types.LandmarkTypeRightEyeLeft,
		corner2: types.LandmarkTypeRightEyeRight,
		up:      types.LandmarkTypeRightEyeUp,
		down:    types.LandmarkTypeRightEyeDown,
	}
)

// Provider implements provider.LandmarkProvider using AWS Rekognition DetectFaces
type Provider struct {
	api    DetectFacesAPI
	config Config
}

// NewProvider creates a Rekognition provider from the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return NewProviderWithAPI(client, cfg), nil
}

// NewProviderWithAPI creates a provider over an existing DetectFaces client
func NewProviderWithAPI(api DetectFacesAPI, cfg Config) *Provider {
	return &Provider{api: api, config: cfg}
}

func (p *Provider) Name() string {
	return "rekognition"
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// DetectEyes detects faces and converts their eye landmarks.
//
// Rekognition reports four points per eye (two corners, top and bottom of the
// lid), so both vertical pairs of the six-point set share the same top and
// bottom point and the ratio reduces to lid height over eye width.
func (p *Provider) DetectEyes(ctx context.Context, image []byte) ([]provider.FaceEyes, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", classifyError(err))
	}

	faces := make([]provider.FaceEyes, 0, len(output.FaceDetails))
	for i, detail := range output.FaceDetails {
		confidence := float32Value(detail.Confidence)
		if confidence < p.config.MinConfidence {
			continue
		}

		points := indexLandmarks(detail.Landmarks)
		left, ok := buildEye(points, leftEye)
		if !ok {
			return nil, fmt.Errorf("face %d: left eye: %w", i, ErrMissingLandmarks)
		}
		right, ok := buildEye(points, rightEye)
		if !ok {
			return nil, fmt.Errorf("face %d: right eye: %w", i, ErrMissingLandmarks)
		}

		face := provider.FaceEyes{
			Left:       left,
			Right:      right,
			Confidence: float64(confidence) / 100,
		}
		if box := detail.BoundingBox; box != nil {
			face.BoundingBox = provider.BoundingBox{
				X:      float64(float32Value(box.Left)),
				Y:      float64(float32Value(box.Top)),
				Width:  float64(float32Value(box.Width)),
				Height: float64(float32Value(box.Height)),
			}
		}

		faces = append(faces, face)
	}

	return faces, nil
}

func indexLandmarks(landmarks []types.Landmark) map[types.LandmarkType]domain.Point {
	points := make(map[types.LandmarkType]domain.Point, len(landmarks))
	for _, lm := range landmarks {
		if lm.X == nil || lm.Y == nil {
			continue
		}
		points[lm.Type] = domain.Point{X: float64(*lm.X), Y: float64(*lm.Y)}
	}
	return points
}

func buildEye(points map[types.LandmarkType]domain.Point, names eyeLandmarks) (domain.EyeLandmarkSet, bool) {
	c1, ok1 := points[names.corner1]
	c2, ok2 := points[names.corner2]
	up, ok3 := points[names.up]
	down, ok4 := points[names.down]
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.EyeLandmarkSet{}, false
	}

	return domain.EyeLandmarkSet{c1, up, up, c2, down, down}, true
}

func float32Value(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}

// Ensure Provider implements provider.LandmarkProvider interface at compile time
var _ provider.LandmarkProvider = (*Provider)(nil)
