package forecast

import (
	"log"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// Engine owns the shared history buffer and the strategy selection. The
// trained strategy is preferred when available; any per-call failure inside
// it is mapped to the baseline forecast for that call rather than crossing
// the strategy boundary as an error.
type Engine struct {
	history  *History
	baseline *Baseline
	primary  Strategy
}

// NewEngine selects the primary strategy once at construction time. Pass a
// nil trained strategy (or an unavailable one) to run baseline-only.
func NewEngine(history *History, trained *Trained) *Engine {
	e := &Engine{
		history:  history,
		baseline: NewBaseline(history),
	}
	if trained != nil && trained.Available() {
		e.primary = trained
	} else {
		e.primary = e.baseline
	}
	log.Printf("forecast engine: strategy=%s", e.primary.Name())
	return e
}

// StrategyName reports the selected primary strategy.
func (e *Engine) StrategyName() string { return e.primary.Name() }

// Observe appends one observation to the camera's history buffer. Called
// once per processing cycle before Forecast.
func (e *Engine) Observe(cameraID string, state *models.CIState) {
	e.history.Append(cameraID, state.TS, state.CI)
}

// Warm replays persisted observations into the history buffer, oldest first.
// Used at startup so lag/rolling features survive restarts.
func (e *Engine) Warm(cameraID string, obs []Observation) {
	for _, o := range obs {
		e.history.Append(cameraID, o.TS, o.CI)
	}
}

// Forecast generates the forecast vector for the state. A primary-strategy
// failure degrades to the baseline forecast for that call, retagged with the
// fallback version; with too little history the baseline itself degrades to
// persistence. Forecast never fails.
func (e *Engine) Forecast(state *models.CIState) *models.CIForecast {
	f, err := e.primary.GenerateForecast(state)
	if err == nil {
		return f
	}
	log.Printf("forecast fallback for camera=%s: %v", state.CameraID, err)
	fb, _ := e.baseline.GenerateForecast(state)
	fb.ModelVersion = FallbackVersion
	return fb
}
