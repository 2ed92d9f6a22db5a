package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russe11bryan/TripTally-sub000/models"
)

type fakeReader struct {
	states    map[string]*models.CIState
	forecasts map[string]*models.CIForecast
}

func (f *fakeReader) GetCIState(_ context.Context, id string) (*models.CIState, error) {
	return f.states[id], nil
}

func (f *fakeReader) GetForecast(_ context.Context, id string) (*models.CIForecast, error) {
	return f.forecasts[id], nil
}

// testRoute is a straight west-east polyline with three cameras sitting on
// it.
var testRoute = []models.Point{
	{Lat: 1.30, Lng: 103.80},
	{Lat: 1.30, Lng: 103.85},
	{Lat: 1.30, Lng: 103.90},
}

var testCameras = []models.Camera{
	{CameraID: "cam-a", Lat: 1.30, Lng: 103.81},
	{CameraID: "cam-b", Lat: 1.30, Lng: 103.85},
	{CameraID: "cam-c", Lat: 1.30, Lng: 103.89},
}

// decliningForecast reports 0.75 on near horizons, 0.30 at 20 minutes and at
// most 0.32 afterwards.
func decliningForecast(cameraID string, generatedAt time.Time) *models.CIForecast {
	f := &models.CIForecast{CameraID: cameraID, GeneratedAt: generatedAt, ModelVersion: "baseline-v1"}
	for h := 2; h <= 120; h += 2 {
		ci := 0.75
		switch {
		case h >= 30:
			ci = 0.32
		case h >= 20:
			ci = 0.30
		}
		f.Horizons = append(f.Horizons, models.ForecastHorizon{
			HorizonMin:  h,
			PredictedCI: ci,
			Confidence:  0.5,
			TargetTS:    generatedAt.Add(time.Duration(h) * time.Minute),
		})
	}
	return f
}

func newTestOptimizer(reader Reader) *Optimizer {
	o := New(reader, testCameras, Config{})
	o.now = func() time.Time { return time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC) }
	return o
}

func TestOptimizeCongestionDropScenario(t *testing.T) {
	now := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		states:    map[string]*models.CIState{},
		forecasts: map[string]*models.CIForecast{},
	}
	for _, cam := range testCameras {
		reader.states[cam.CameraID] = &models.CIState{CameraID: cam.CameraID, TS: now, CI: 0.75}
		reader.forecasts[cam.CameraID] = decliningForecast(cam.CameraID, now)
	}

	o := newTestOptimizer(reader)
	res, err := o.Optimize(context.Background(), Request{Route: testRoute, BaselineETAMin: 30})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Best.MinutesFromNow, 15)
	assert.LessOrEqual(t, res.Best.MinutesFromNow, 30)
	assert.Less(t, res.Best.AverageCI, res.CurrentAverageCI)
	assert.InDelta(t, 0.75, res.CurrentAverageCI, 1e-9)
	assert.Greater(t, res.Best.Confidence, 0.0)
	assert.Greater(t, res.TimeSavedMin, 0.0, "waiting out the congestion should save time")
	assert.Len(t, res.Alternatives, 3)
	assert.Len(t, res.Cameras, 3)

	// Alternatives are ranked no better than the best slot.
	for _, alt := range res.Alternatives {
		assert.GreaterOrEqual(t, alt.AverageCI, res.Best.AverageCI)
	}
}

func TestOptimizeTieBreakPrefersEarlierSlot(t *testing.T) {
	now := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		states:    map[string]*models.CIState{},
		forecasts: map[string]*models.CIForecast{},
	}
	// Flat forecast: every slot has an identical mean CI.
	flat := &models.CIForecast{CameraID: "cam-a", GeneratedAt: now}
	for h := 2; h <= 120; h += 2 {
		flat.Horizons = append(flat.Horizons, models.ForecastHorizon{HorizonMin: h, PredictedCI: 0.5, Confidence: 0.5})
	}
	for _, cam := range testCameras {
		reader.states[cam.CameraID] = &models.CIState{CameraID: cam.CameraID, TS: now, CI: 0.5}
		f := *flat
		f.CameraID = cam.CameraID
		reader.forecasts[cam.CameraID] = &f
	}

	o := newTestOptimizer(reader)
	res, err := o.Optimize(context.Background(), Request{Route: testRoute, BaselineETAMin: 30})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Best.MinutesFromNow, "identical slots must resolve to the earliest")
	assert.Equal(t, 0.0, res.TimeSavedMin)
}

func TestOptimizeNoCameras(t *testing.T) {
	o := newTestOptimizer(&fakeReader{})
	farRoute := []models.Point{
		{Lat: 45.0, Lng: 7.0},
		{Lat: 45.1, Lng: 7.1},
	}
	res, err := o.Optimize(context.Background(), Request{Route: farRoute, BaselineETAMin: 30})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Best.Confidence)
	assert.Equal(t, 0.0, res.TimeSavedMin)
	assert.Equal(t, 0, res.Best.MinutesFromNow)
	assert.Empty(t, res.Cameras)
	assert.GreaterOrEqual(t, res.Best.TravelTimeMin, 30.0, "travel estimate never beats the baseline")
}

func TestOptimizeMissingDataUsesDefault(t *testing.T) {
	// No states, no forecasts: every camera falls back to DefaultCI.
	o := newTestOptimizer(&fakeReader{})
	res, err := o.Optimize(context.Background(), Request{Route: testRoute, BaselineETAMin: 30})
	require.NoError(t, err)
	assert.InDelta(t, DefaultCI, res.CurrentAverageCI, 1e-9)
	assert.InDelta(t, DefaultCI, res.Best.AverageCI, 1e-9)
}

func TestOptimizeHonorsContextCancellation(t *testing.T) {
	now := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	reader := &fakeReader{states: map[string]*models.CIState{}, forecasts: map[string]*models.CIForecast{}}
	for _, cam := range testCameras {
		reader.states[cam.CameraID] = &models.CIState{CameraID: cam.CameraID, TS: now, CI: 0.5}
	}
	o := newTestOptimizer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Optimize(ctx, Request{Route: testRoute, BaselineETAMin: 30})
	assert.Error(t, err)
}

func TestETAMultiplier(t *testing.T) {
	tests := []struct {
		ci   float64
		want float64
	}{
		{0.0, 1.0},
		{0.19, 1.0},
		{0.2, 1.1},
		{0.39, 1.1},
		{0.4, 1.25},
		{0.59, 1.25},
		{0.6, 1.5},
		{0.79, 1.5},
		{0.8, 2.0},
		{1.0, 2.0},
	}
	prev := 0.0
	for _, tt := range tests {
		got := ETAMultiplier(tt.ci)
		if got != tt.want {
			t.Errorf("ETAMultiplier(%v) = %v, want %v", tt.ci, got, tt.want)
		}
		if got < prev {
			t.Errorf("ETAMultiplier not non-decreasing at ci=%v", tt.ci)
		}
		if got < 1.0 {
			t.Errorf("ETAMultiplier(%v) = %v, below baseline", tt.ci, got)
		}
		prev = got
	}
}

func TestConfidenceDecaysWithHorizon(t *testing.T) {
	o := newTestOptimizer(&fakeReader{})
	cfg := Config{}.withDefaults()

	near := models.DepartureOption{MinutesFromNow: 10, AverageCI: 0.3}
	far := models.DepartureOption{MinutesFromNow: 110, AverageCI: 0.3}
	cNear := o.confidence(5, 0.6, near, cfg)
	cFar := o.confidence(5, 0.6, far, cfg)
	assert.Greater(t, cNear, cFar, "later slots carry less confidence")

	for _, c := range []float64{cNear, cFar} {
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}
