package models

// Box is one detected vehicle in pixel coordinates (x1,y1,x2,y2).
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area in square pixels, clamped non-negative.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w * h
}

// DetectionResult is the per-frame output of the external detector plus the
// aggregates derived from it. Ephemeral: produced and consumed within one
// processing cycle.
type DetectionResult struct {
	Boxes         []Box     `json:"boxes"`
	Scores        []float64 `json:"scores"`
	ClassIDs      []int     `json:"class_ids"`
	VehicleCount  int       `json:"vehicle_count"`
	WeightedCount float64   `json:"weighted_count"`
	AreaRatio     float64   `json:"area_ratio"`
	InferenceMS   float64   `json:"inference_ms"`
	ImageWidth    int       `json:"image_width"`
	ImageHeight   int       `json:"image_height"`
}
