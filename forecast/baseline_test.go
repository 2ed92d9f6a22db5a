package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russe11bryan/TripTally-sub000/models"
)

func stateAt(cameraID string, ts time.Time, ci float64) *models.CIState {
	return &models.CIState{CameraID: cameraID, TS: ts, CI: ci}
}

func TestLadder(t *testing.T) {
	ladder := Ladder()
	require.Len(t, ladder, 60)
	assert.Equal(t, 2, ladder[0])
	assert.Equal(t, 120, ladder[len(ladder)-1])
	for i := 1; i < len(ladder); i++ {
		assert.Equal(t, 2, ladder[i]-ladder[i-1])
	}
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		h.Append("cam-1", base.Add(time.Duration(i)*time.Minute), float64(i)/10)
	}
	assert.Equal(t, 3, h.Len("cam-1"))

	obs := h.Recent("cam-1", 10)
	require.Len(t, obs, 3)
	assert.Equal(t, 0.2, obs[0].CI, "oldest entries evicted first")
	assert.Equal(t, 0.4, obs[2].CI)

	assert.Equal(t, 0, h.Len("cam-2"), "buffers are per camera")
}

func TestBaselinePersistenceColdStart(t *testing.T) {
	history := NewHistory(HistoryCapacity)
	b := NewBaseline(history)

	now := time.Now().UTC()
	history.Append("cam-1", now, 0.55)

	f, err := b.GenerateForecast(stateAt("cam-1", now, 0.55))
	require.NoError(t, err)
	require.Len(t, f.Horizons, 60)
	for _, h := range f.Horizons {
		assert.Equal(t, 0.55, h.PredictedCI, "persistence forecasts current CI flat")
		assert.Equal(t, persistenceConfidence, h.Confidence)
	}
	assert.Equal(t, baselineVersion, f.ModelVersion)
	assert.Equal(t, now.Add(2*time.Minute), f.Horizons[0].TargetTS)
}

func TestBaselineTrendAndReversion(t *testing.T) {
	history := NewHistory(HistoryCapacity)
	b := NewBaseline(history)

	// Rising congestion: +0.01 CI per minute over two-minute cycles.
	base := time.Now().UTC()
	ci := 0.30
	var last time.Time
	for i := 0; i < 10; i++ {
		last = base.Add(time.Duration(2*i) * time.Minute)
		history.Append("cam-1", last, ci)
		ci += 0.02
	}
	current := ci - 0.02

	f, err := b.GenerateForecast(stateAt("cam-1", last, current))
	require.NoError(t, err)
	assert.Equal(t, baselineConfidence, f.Horizons[0].Confidence)

	// Near horizons follow the upward trend before reversion dominates.
	near := f.Horizons[0].PredictedCI
	assert.Greater(t, near, current, "rising trend should lift the near forecast")

	for _, h := range f.Horizons {
		assert.GreaterOrEqual(t, h.PredictedCI, 0.0)
		assert.LessOrEqual(t, h.PredictedCI, 1.0)
	}
}

func TestBaselineMonotonicDecayTowardMean(t *testing.T) {
	history := NewHistory(HistoryCapacity)
	b := NewBaseline(history)

	// 20 high observations then 10 flat low ones: zero trend in the last
	// window, but the 30-observation mean sits above the current CI.
	base := time.Now().UTC()
	var last time.Time
	for i := 0; i < 20; i++ {
		last = base.Add(time.Duration(2*i) * time.Minute)
		history.Append("cam-1", last, 0.8)
	}
	for i := 20; i < 30; i++ {
		last = base.Add(time.Duration(2*i) * time.Minute)
		history.Append("cam-1", last, 0.4)
	}

	f, err := b.GenerateForecast(stateAt("cam-1", last, 0.4))
	require.NoError(t, err)

	meanCI := (20*0.8 + 10*0.4) / 30.0
	prevGap := math.Abs(f.Horizons[0].PredictedCI - meanCI)
	for _, h := range f.Horizons[1:] {
		gap := math.Abs(h.PredictedCI - meanCI)
		assert.LessOrEqual(t, gap, prevGap+1e-12,
			"gap to mean must not grow with horizon (h=%d)", h.HorizonMin)
		prevGap = gap
	}
}

func TestBaselineClampsExtremeTrend(t *testing.T) {
	history := NewHistory(HistoryCapacity)
	b := NewBaseline(history)

	base := time.Now().UTC()
	var last time.Time
	for i := 0; i < 10; i++ {
		last = base.Add(time.Duration(2*i) * time.Minute)
		history.Append("cam-1", last, float64(i)*0.1)
	}
	f, err := b.GenerateForecast(stateAt("cam-1", last, 0.9))
	require.NoError(t, err)
	for _, h := range f.Horizons {
		assert.LessOrEqual(t, h.PredictedCI, 1.0)
		assert.GreaterOrEqual(t, h.PredictedCI, 0.0)
	}
}
