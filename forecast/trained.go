package forecast

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/russe11bryan/TripTally-sub000/congestion"
	"github.com/russe11bryan/TripTally-sub000/models"
)

// FallbackVersion tags forecasts produced by the baseline after a trained
// strategy runtime failure.
const FallbackVersion = "baseline-fallback"

var (
	lagSteps     = []int{1, 2, 3, 6, 12}
	rollingSteps = []int{6, 12, 30}
)

// trainedMetadata describes the artifact set: the feature column order the
// scaler and regressors were fitted with, and which horizons were trained.
type trainedMetadata struct {
	ModelVersion   string   `json:"model_version"`
	FeatureColumns []string `json:"feature_columns"`
	Horizons       []int    `json:"horizons"`
}

type scalerArtifact struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type regressorArtifact struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Trained is the trained-model strategy: one regressor per trained horizon
// plus a shared feature scaler. If any artifact is missing or corrupt the
// strategy reports unavailable and the engine selects the baseline instead.
type Trained struct {
	history    *History
	meta       trainedMetadata
	scaler     scalerArtifact
	regressors map[int]regressorArtifact
	available  bool
}

// LoadTrained reads the artifact set from dir (metadata.json, scaler.json,
// model_h<N>.json per horizon). Load failures never abort the process; they
// produce an unavailable strategy.
func LoadTrained(dir string, history *History) *Trained {
	t := &Trained{history: history, regressors: make(map[int]regressorArtifact)}

	if err := readJSON(filepath.Join(dir, "metadata.json"), &t.meta); err != nil {
		log.Printf("trained model unavailable: %v", err)
		return t
	}
	if err := readJSON(filepath.Join(dir, "scaler.json"), &t.scaler); err != nil {
		log.Printf("trained model unavailable: %v", err)
		return t
	}
	if len(t.scaler.Mean) != len(t.meta.FeatureColumns) || len(t.scaler.Scale) != len(t.meta.FeatureColumns) {
		log.Printf("trained model unavailable: scaler dimensions do not match feature columns")
		return t
	}
	if len(t.meta.Horizons) == 0 {
		log.Printf("trained model unavailable: no trained horizons in metadata")
		return t
	}
	for _, h := range t.meta.Horizons {
		var reg regressorArtifact
		if err := readJSON(filepath.Join(dir, fmt.Sprintf("model_h%d.json", h)), &reg); err != nil {
			log.Printf("trained model unavailable: %v", err)
			return t
		}
		if len(reg.Coefficients) != len(t.meta.FeatureColumns) {
			log.Printf("trained model unavailable: regressor h=%d dimension mismatch", h)
			return t
		}
		t.regressors[h] = reg
	}
	sort.Ints(t.meta.Horizons)
	t.available = true
	log.Printf("trained model loaded: version=%s horizons=%v features=%d",
		t.meta.ModelVersion, t.meta.Horizons, len(t.meta.FeatureColumns))
	return t
}

func (t *Trained) Name() string {
	if t.meta.ModelVersion != "" {
		return t.meta.ModelVersion
	}
	return "trained"
}

func (t *Trained) Available() bool { return t.available }

func (t *Trained) GenerateForecast(state *models.CIState) (*models.CIForecast, error) {
	if !t.available {
		return nil, fmt.Errorf("trained strategy unavailable")
	}

	features, err := t.featureVector(state)
	if err != nil {
		return nil, err
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		scale := t.scaler.Scale[i]
		if scale == 0 {
			scale = 1
		}
		scaled[i] = (v - t.scaler.Mean[i]) / scale
	}

	// Predict each trained horizon once, then fill the ladder.
	trained := make(map[int]float64, len(t.meta.Horizons))
	for h, reg := range t.regressors {
		trained[h] = congestion.Clip01(floats.Dot(reg.Coefficients, scaled) + reg.Intercept)
	}

	forecast := &models.CIForecast{
		CameraID:     state.CameraID,
		GeneratedAt:  state.TS,
		ModelVersion: t.Name(),
	}
	for _, h := range Ladder() {
		ci, direct := t.interpolate(trained, h)
		conf := 0.75
		if direct {
			conf = 0.85
		}
		forecast.Horizons = append(forecast.Horizons, models.ForecastHorizon{
			HorizonMin:  h,
			PredictedCI: ci,
			Confidence:  conf,
			TargetTS:    state.TS.Add(minutes(h)),
		})
	}
	return forecast, nil
}

// interpolate returns the prediction for horizon h, linearly blending the
// nearest trained-lower and trained-upper horizons when h itself was not
// trained. Outside the trained range the nearest trained prediction is used.
func (t *Trained) interpolate(trained map[int]float64, h int) (float64, bool) {
	if ci, ok := trained[h]; ok {
		return ci, true
	}
	horizons := t.meta.Horizons
	if h < horizons[0] {
		return trained[horizons[0]], false
	}
	if h > horizons[len(horizons)-1] {
		return trained[horizons[len(horizons)-1]], false
	}
	lower, upper := horizons[0], horizons[len(horizons)-1]
	for _, th := range horizons {
		if th < h && th > lower {
			lower = th
		}
		if th > h && th < upper {
			upper = th
		}
	}
	frac := float64(h-lower) / float64(upper-lower)
	return congestion.Clip01(trained[lower] + frac*(trained[upper]-trained[lower])), false
}

// featureVector assembles the model input in the column order the artifacts
// were fitted with. Lag and rolling features come from the in-memory history
// buffer; missing history is backfilled with the earliest available value.
func (t *Trained) featureVector(state *models.CIState) ([]float64, error) {
	obs := t.history.Recent(state.CameraID, HistoryCapacity)

	ciAtLag := func(lag int) float64 {
		// lag 0 is the current observation (last element).
		idx := len(obs) - 1 - lag
		if idx < 0 {
			if len(obs) == 0 {
				return state.CI
			}
			return obs[0].CI
		}
		return obs[idx].CI
	}
	rollingMean := func(window int) float64 {
		if len(obs) == 0 {
			return state.CI
		}
		if window > len(obs) {
			window = len(obs)
		}
		vals := make([]float64, 0, window)
		for _, o := range obs[len(obs)-window:] {
			vals = append(vals, o.CI)
		}
		return stat.Mean(vals, nil)
	}

	values := map[string]float64{
		"ci":             state.CI,
		"vehicle_count":  float64(state.VehicleCount),
		"weighted_count": state.WeightedCount,
		"area_ratio":     state.AreaRatio,
		"motion_score":   state.MotionScore,
		"minute_of_day":  float64(state.Temporal.MinuteOfDay),
		"hour":           float64(state.Temporal.Hour),
		"day_of_week":    float64(state.Temporal.DayOfWeek),
		"is_weekend":     boolToFloat(state.Temporal.IsWeekend),
		"sin_time":       state.Temporal.SinTime,
		"cos_time":       state.Temporal.CosTime,
		"ci_diff_1":      state.CI - ciAtLag(1),
	}
	for _, lag := range lagSteps {
		values[fmt.Sprintf("ci_lag_%d", lag)] = ciAtLag(lag)
	}
	for _, w := range rollingSteps {
		values[fmt.Sprintf("ci_roll_%d", w)] = rollingMean(w)
	}

	vector := make([]float64, len(t.meta.FeatureColumns))
	for i, col := range t.meta.FeatureColumns {
		v, ok := values[col]
		if !ok {
			return nil, fmt.Errorf("unknown feature column %q", col)
		}
		vector[i] = v
	}
	return vector, nil
}

func readJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
