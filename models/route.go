package models

import "time"

// Point is a (lat,lng) coordinate pair on a route polyline.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteCameraInfo ties a catalog camera to a route: its perpendicular
// distance to the polyline and its fractional position along it. Derived per
// optimization request, never persisted.
type RouteCameraInfo struct {
	CameraID   string  `json:"camera_id"`
	DistanceKM float64 `json:"distance_km"`
	Position   float64 `json:"position"`
}

// DepartureOption is one candidate departure slot with its congestion
// snapshot, travel estimate and confidence.
type DepartureOption struct {
	DepartAt       time.Time          `json:"depart_at"`
	MinutesFromNow int                `json:"minutes_from_now"`
	CameraCI       map[string]float64 `json:"camera_ci"`
	AverageCI      float64            `json:"average_ci"`
	MaxCI          float64            `json:"max_ci"`
	TravelTimeMin  float64            `json:"travel_time_min"`
	ETA            time.Time          `json:"eta"`
	Confidence     float64            `json:"confidence"`
}

// RouteOptimizationResult is the final recommendation returned to the caller.
type RouteOptimizationResult struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Best             DepartureOption   `json:"best"`
	Alternatives     []DepartureOption `json:"alternatives"`
	Cameras          []RouteCameraInfo `json:"cameras"`
	CurrentAverageCI float64           `json:"current_average_ci"`
	TimeSavedMin     float64           `json:"time_saved_min"`
}
