package congestion

import (
	"math"
	"time"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// Weights and saturation constants for the congestion index. Defaults match
// the calibrated production values; override via config at boot.
type Weights struct {
	CountSaturation  float64 // weighted count at which vehicle density saturates
	AreaSaturation   float64 // area ratio at which area density saturates
	MotionSaturation float64 // motion score at which motion relief vanishes
	DensityWeight    float64 // weight of vehicle density in ci_raw
	AreaWeight       float64 // weight of area density in ci_raw
	RawWeight        float64 // weight of ci_raw in the final CI
	ReliefWeight     float64 // weight of motion relief in the final CI
}

// DefaultWeights returns the calibrated default weight set.
func DefaultWeights() Weights {
	return Weights{
		CountSaturation:  20.0,
		AreaSaturation:   0.4,
		MotionSaturation: 5.0,
		DensityWeight:    0.6,
		AreaWeight:       0.4,
		RawWeight:        0.7,
		ReliefWeight:     0.3,
	}
}

// Validate rejects weight sets that would push the CI outside [0,1]. Called
// once at boot; failures are fatal, not recoverable.
func (w Weights) Validate() bool {
	if w.CountSaturation <= 0 || w.AreaSaturation <= 0 || w.MotionSaturation <= 0 {
		return false
	}
	for _, v := range []float64{w.DensityWeight, w.AreaWeight, w.RawWeight, w.ReliefWeight} {
		if v < 0 {
			return false
		}
	}
	if math.Abs(w.DensityWeight+w.AreaWeight-1.0) > 1e-9 {
		return false
	}
	if math.Abs(w.RawWeight+w.ReliefWeight-1.0) > 1e-9 {
		return false
	}
	return true
}

// classWeights maps detector class ids to their congestion contribution.
// Two-wheelers count half, heavy vehicles double, unknown classes count as
// one car.
var classWeights = map[int]float64{
	1: 0.5, // bicycle
	2: 1.0, // car
	3: 1.0, // motorcycle
	5: 2.0, // bus
	7: 2.0, // truck
}

// WeightedCount sums the per-class weights of the detected vehicles.
func WeightedCount(classIDs []int) float64 {
	total := 0.0
	for _, id := range classIDs {
		w, ok := classWeights[id]
		if !ok {
			w = 1.0
		}
		total += w
	}
	return total
}

// AreaRatio divides the summed box areas by the image area. Image area is
// floored at one pixel so an empty frame never divides by zero.
func AreaRatio(boxes []models.Box, imageArea float64) float64 {
	if imageArea < 1 {
		imageArea = 1
	}
	total := 0.0
	for _, b := range boxes {
		total += b.Area()
	}
	return total / imageArea
}

// CI combines weighted count, area ratio and motion score into the
// congestion index. Deterministic and side-effect free; always in [0,1].
// Low motion reads as stopped traffic, so the relief term contributes fully
// when motion is zero.
func CI(w Weights, weightedCount, areaRatio, motion float64) float64 {
	vehDensity := Clip01(weightedCount / w.CountSaturation)
	areaDensity := Clip01(areaRatio / w.AreaSaturation)
	ciRaw := w.DensityWeight*vehDensity + w.AreaWeight*areaDensity
	motionRelief := 1.0 - Clip01(motion/w.MotionSaturation)
	return Clip01(w.RawWeight*ciRaw + w.ReliefWeight*motionRelief)
}

// TemporalFeatures encodes the timestamp cyclically so the model sees
// midnight and 23:59 as neighbours.
func TemporalFeatures(ts time.Time) models.TemporalFeatures {
	hour := ts.Hour()
	minute := ts.Minute()
	dow := int(ts.Weekday())
	frac := 2 * math.Pi * (float64(hour) + float64(minute)/60.0) / 24.0
	return models.TemporalFeatures{
		MinuteOfDay: hour*60 + minute,
		Hour:        hour,
		DayOfWeek:   dow,
		IsWeekend:   dow == 0 || dow == 6,
		SinTime:     math.Sin(frac),
		CosTime:     math.Cos(frac),
	}
}

// Clip01 clamps v to [0,1].
func Clip01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
