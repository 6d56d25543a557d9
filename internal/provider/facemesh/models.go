package facemesh

// LandmarksRequest for POST /landmarks
type LandmarksRequest struct {
	Img                    string  `json:"img"` // base64 encoded image
	MaxNumFaces            int     `json:"max_num_faces"`
	RefineLandmarks        bool    `json:"refine_landmarks"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
}

// LandmarksResponse from POST /landmarks
type LandmarksResponse struct {
	Results []FaceResult `json:"results"`
}

// FaceResult is one detected face mesh. Landmarks are indexed by the
// MediaPipe FaceMesh topology (468 points, 478 with refined irises).
type FaceResult struct {
	Landmarks   []Landmark  `json:"landmarks"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Score       float64     `json:"score"`
}

// Landmark is a normalized mesh vertex; Z is relative depth and unused here.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
