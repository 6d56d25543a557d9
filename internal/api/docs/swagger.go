package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// DetectRequest is the body of POST /detect
type DetectRequest struct {
	Frame string `json:"frame" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
}

// DetectResponse is returned when a face was found and processed
type DetectResponse struct {
	Status        string  `json:"status" example:"success"`
	Message       string  `json:"message" example:"Face processed"`
	BlinkCount    int     `json:"blink_count" example:"2"`
	LivenessScore int     `json:"liveness_score" example:"20"`
	EAR           float64 `json:"ear" example:"0.31"`
}

// FrameErrorResponse is returned with 200 when the frame had no usable face
type FrameErrorResponse struct {
	Error         string `json:"error" example:"No face detected"`
	BlinkCount    int    `json:"blink_count" example:"2"`
	LivenessScore int    `json:"liveness_score" example:"20"`
}

// ResetResponse is the body of POST /reset
type ResetResponse struct {
	Status        string `json:"status" example:"reset"`
	BlinkCount    int    `json:"blink_count" example:"0"`
	LivenessScore int    `json:"liveness_score" example:"0"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	BlinkCount    int     `json:"blink_count" example:"3"`
	LivenessScore int     `json:"liveness_score" example:"30"`
	EAR           float64 `json:"ear" example:"0.33"`
	Verified      bool    `json:"verified" example:"true"`
	Phase         string  `json:"phase" example:"open"`
}

// EventData is one persisted liveness event
type EventData struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp     string  `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	EventType     string  `json:"event_type" example:"BLINK_CONFIRMED"`
	Provider      string  `json:"provider" example:"facemesh"`
	BlinkCount    int     `json:"blink_count" example:"1"`
	LivenessScore int     `json:"liveness_score" example:"10"`
	EAR           float64 `json:"ear" example:"0.34"`
}

// EventsResponse is the body of GET /v1/events
type EventsResponse struct {
	Events []EventData `json:"events"`
	Count  int         `json:"count" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid frame received"`
}

// HealthResponse is the body of the health endpoints
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Version  string `json:"version,omitempty" example:"0.1.0"`
	Provider string `json:"provider,omitempty" example:"facemesh"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Blinkcheck API",
		Version:     "v1.0.0",
		Description: "Blink based liveness check: the browser streams webcam frames, the server counts blinks from the eye aspect ratio",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/detect",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Process one webcam frame"),
			endpoint.WithDescription("Decodes the frame, estimates eye landmarks and advances the blink tracker. Frames without a usable face answer 200 with an error message and the unchanged counters."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(DetectRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectResponse{}, "200", "Frame processed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "No frame data received"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Error: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/reset",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Reset the blink tracker"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ResetResponse{}, "200", "Tracker reset"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/status",
			endpoint.WithTags("Liveness"),
			endpoint.WithSummary("Current tracker status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Current counters"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/events",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Recent liveness events"),
			endpoint.WithDescription("Lists confirmed blinks, verifications and resets, newest first. Only available when DATABASE_URL is configured."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of events (1-500, default 50)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventsResponse{}, "200", "Events listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "Event log is not configured"}, "404", "Not Found"),
				response.New(ErrorResponse{Error: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Checks the landmark provider and, when configured, the database."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
