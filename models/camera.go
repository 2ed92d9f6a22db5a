package models

// Camera is one entry from the static camera catalog. Loaded once at startup
// and treated as immutable for the lifetime of the process.
type Camera struct {
	CameraID string  `json:"camera_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	ImageURL string  `json:"image_url,omitempty"`
}
