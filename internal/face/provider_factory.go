package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/config"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider/facemesh"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider/rekognition"
)

// ProviderType defines supported landmark provider types
type ProviderType string

const (
	// ProviderTypeFaceMesh is the MediaPipe FaceMesh sidecar (default)
	ProviderTypeFaceMesh ProviderType = "facemesh"
	// ProviderTypeRekognition is the AWS Rekognition provider
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock replays a scripted EAR sequence, for dev/test
	ProviderTypeMock ProviderType = "mock"
)

// NewLandmarkProvider creates a LandmarkProvider based on configuration
//
// Environment variables:
//   - LANDMARK_PROVIDER: "facemesh", "rekognition" or "mock" (default: "facemesh")
//   - FACEMESH_URL, FACEMESH_TIMEOUT, FACEMESH_RETRIES: sidecar settings
//   - AWS_REGION: AWS region for Rekognition (credentials via the AWS SDK chain)
//   - MOCK_EAR_SCRIPT: comma separated EARs replayed by the mock, negative means no face
func NewLandmarkProvider(ctx context.Context, cfg *config.Config) (provider.LandmarkProvider, error) {
	switch ProviderType(cfg.LandmarkProvider) {
	case ProviderTypeFaceMesh, "":
		return createFaceMeshProvider(cfg), nil

	case ProviderTypeRekognition:
		return createRekognitionProvider(ctx, cfg)

	case ProviderTypeMock:
		return mock.New(cfg.MockEARScript...), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.LandmarkProvider, ProviderTypeFaceMesh, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(ctx context.Context, cfg *config.Config) (provider.LandmarkProvider, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider in %s: %w", rekogConfig.Region, err)
	}

	return prov, nil
}

// createFaceMeshProvider creates a FaceMesh sidecar provider instance
func createFaceMeshProvider(cfg *config.Config) provider.LandmarkProvider {
	meshConfig := facemesh.DefaultConfig()

	if cfg.FaceMeshURL != "" {
		meshConfig.BaseURL = cfg.FaceMeshURL
	}
	if cfg.FaceMeshTimeout > 0 {
		meshConfig.Timeout = cfg.FaceMeshTimeout
	}
	if cfg.FaceMeshRetries >= 0 {
		meshConfig.RetryCount = cfg.FaceMeshRetries
	}

	return facemesh.NewProvider(meshConfig)
}
