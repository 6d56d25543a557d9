package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied        = "AccessDeniedException"
	errCodeInvalidImageFormat  = "InvalidImageFormatException"
	errCodeImageTooLarge       = "ImageTooLargeException"
	errCodeInvalidParameter    = "InvalidParameterException"
	errCodeThrottling          = "ThrottlingException"
	errCodeProvisionedExceeded = "ProvisionedThroughputExceededException"
)

// DetectFacesAPI is the subset of the Rekognition client used by the provider
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient creates a Rekognition client using the AWS default credential chain
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// classifyError maps Rekognition API error codes to package errors
func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	case errCodeThrottling, errCodeProvisionedExceeded:
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	return err
}
