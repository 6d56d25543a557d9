package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates that Rekognition rejected the image bytes
	ErrInvalidImage = errors.New("image rejected by rekognition")

	// ErrThrottled indicates the account exceeded its request rate
	ErrThrottled = errors.New("rekognition request throttled")

	// ErrMissingLandmarks indicates a face detail without the eye landmarks
	ErrMissingLandmarks = errors.New("face detail missing eye landmarks")
)
