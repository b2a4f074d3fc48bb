// Package domain contains core domain types for the Morphos backend.
package domain

// Keypoint is a detected body-landmark observation in normalized image
// coordinates. Y grows downward, as in image space.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}
