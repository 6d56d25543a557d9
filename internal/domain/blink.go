package domain

// Point is a landmark coordinate normalized to the image size (x, y in [0,1]).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyeLandmarkSet holds the six eye landmarks in fixed order:
// outer corner, upper lid 1, upper lid 2, inner corner, lower lid 2, lower lid 1.
// Pairs (1,5) and (2,4) are vertical, (0,3) is horizontal.
type EyeLandmarkSet [6]Point

// Status is a read-only snapshot of the blink tracker.
type Status struct {
	BlinkCount    int     `json:"blink_count"`
	LivenessScore int     `json:"liveness_score"`
	EAR           float64 `json:"ear"`
}

// OutcomeKind classifies the result of processing one frame.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeNoFace  OutcomeKind = "no_face"
)

// Outcome is returned for every processed frame.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	Message        string      `json:"message"`
	Status         Status      `json:"status"`
	BlinkConfirmed bool        `json:"blink_confirmed"`
}

// Success reports whether a face was found and fed to the tracker.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}
