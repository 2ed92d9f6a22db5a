package models

import "time"

// ForecastHorizon is one rung of the forecast ladder: a predicted CI at a
// forward offset from the generation time.
type ForecastHorizon struct {
	HorizonMin  int       `json:"horizon_min"`
	PredictedCI float64   `json:"predicted_ci"`
	Confidence  float64   `json:"confidence"`
	TargetTS    time.Time `json:"target_ts"`
}

// CIForecast is the full forecast vector for one camera at one generation
// time. Horizons are ordered ascending by offset. A write fully replaces any
// prior vector for the camera.
type CIForecast struct {
	CameraID     string            `json:"camera_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Horizons     []ForecastHorizon `json:"horizons"`
	ModelVersion string            `json:"model_version"`
}

// HorizonAt returns the horizon entry whose offset is closest to the wanted
// offset, and whether the closest entry lies within toleranceMin minutes.
func (f *CIForecast) HorizonAt(wantedMin, toleranceMin int) (ForecastHorizon, bool) {
	if len(f.Horizons) == 0 {
		return ForecastHorizon{}, false
	}
	best := f.Horizons[0]
	bestDelta := abs(best.HorizonMin - wantedMin)
	for _, h := range f.Horizons[1:] {
		d := abs(h.HorizonMin - wantedMin)
		if d < bestDelta {
			best, bestDelta = h, d
		}
	}
	return best, bestDelta <= toleranceMin
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
