package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/russe11bryan/TripTally-sub000/congestion"
	"github.com/russe11bryan/TripTally-sub000/models"
)

const (
	baselineVersion = "baseline-v1"

	persistenceConfidence = 0.3
	baselineConfidence    = 0.5

	meanWindow  = 30
	trendWindow = 10

	// decayConstantMin is the mean-reversion time constant: after 60
	// minutes the forecast has moved (1-1/e) of the way to the mean.
	decayConstantMin = 60.0
)

// Baseline is the persistence + mean-reversion strategy. With too little
// history it forecasts the current CI flat across the ladder; with two or
// more observations it extrapolates the recent trend and decays toward the
// recent mean.
type Baseline struct {
	history *History
}

func NewBaseline(history *History) *Baseline {
	return &Baseline{history: history}
}

func (b *Baseline) Name() string { return baselineVersion }

// Available is always true: the baseline needs nothing beyond memory.
func (b *Baseline) Available() bool { return true }

func (b *Baseline) GenerateForecast(state *models.CIState) (*models.CIForecast, error) {
	obs := b.history.Recent(state.CameraID, HistoryCapacity)
	if len(obs) < 2 {
		return b.persistence(state, baselineVersion), nil
	}

	meanCI := meanOf(obs, meanWindow)
	trend := trendPerMinute(obs, trendWindow)

	forecast := &models.CIForecast{
		CameraID:     state.CameraID,
		GeneratedAt:  state.TS,
		ModelVersion: baselineVersion,
	}
	for _, h := range Ladder() {
		decay := math.Exp(-float64(h) / decayConstantMin)
		ci := congestion.Clip01(state.CI + trend*float64(h) + (1-decay)*(meanCI-state.CI))
		forecast.Horizons = append(forecast.Horizons, models.ForecastHorizon{
			HorizonMin:  h,
			PredictedCI: ci,
			Confidence:  baselineConfidence,
			TargetTS:    state.TS.Add(minutes(h)),
		})
	}
	return forecast, nil
}

// persistence is the cold-start forecast: current CI at every horizon.
func (b *Baseline) persistence(state *models.CIState, version string) *models.CIForecast {
	forecast := &models.CIForecast{
		CameraID:     state.CameraID,
		GeneratedAt:  state.TS,
		ModelVersion: version,
	}
	for _, h := range Ladder() {
		forecast.Horizons = append(forecast.Horizons, models.ForecastHorizon{
			HorizonMin:  h,
			PredictedCI: congestion.Clip01(state.CI),
			Confidence:  persistenceConfidence,
			TargetTS:    state.TS.Add(minutes(h)),
		})
	}
	return forecast
}

// meanOf averages the CI of the last window observations.
func meanOf(obs []Observation, window int) float64 {
	if window > len(obs) {
		window = len(obs)
	}
	vals := make([]float64, 0, window)
	for _, o := range obs[len(obs)-window:] {
		vals = append(vals, o.CI)
	}
	return stat.Mean(vals, nil)
}

// trendPerMinute averages the step deltas of the last window observations,
// normalized to a per-minute rate from the observation timestamps.
func trendPerMinute(obs []Observation, window int) float64 {
	if window > len(obs) {
		window = len(obs)
	}
	recent := obs[len(obs)-window:]
	var rates []float64
	for i := 1; i < len(recent); i++ {
		dtMin := recent[i].TS.Sub(recent[i-1].TS).Minutes()
		if dtMin <= 0 {
			continue
		}
		rates = append(rates, (recent[i].CI-recent[i-1].CI)/dtMin)
	}
	if len(rates) == 0 {
		return 0
	}
	return stat.Mean(rates, nil)
}

func minutes(m int) time.Duration {
	return time.Duration(m) * time.Minute
}
