// Package optimizer searches a discretized time axis for the departure slot
// with the lowest expected congestion along a route. It is read-only against
// the store and stateless between requests; concurrent requests need no
// coordination.
package optimizer

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/russe11bryan/TripTally-sub000/congestion"
	"github.com/russe11bryan/TripTally-sub000/geo"
	"github.com/russe11bryan/TripTally-sub000/models"
)

// DefaultCI is substituted whenever a camera has no usable current state or
// forecast ("light traffic" convention). Downstream arithmetic never sees a
// missing value.
const DefaultCI = 0.3

// Reader is the read-only slice of the store the optimizer needs.
type Reader interface {
	GetCIState(ctx context.Context, cameraID string) (*models.CIState, error)
	GetForecast(ctx context.Context, cameraID string) (*models.CIForecast, error)
}

// Config holds the search parameters. Zero values fall back to defaults.
type Config struct {
	RadiusKM         float64 // camera match radius, default 0.5
	SlotIntervalMin  int     // sweep step, default 10
	HorizonMin       int     // sweep end, default 120
	ToleranceMin     int     // forecast horizon match window, default 10
	CameraSaturation int     // camera count at which coverage confidence saturates, default 5
	Alternatives     int     // ranked runner-up slots returned, default 3
}

func (c Config) withDefaults() Config {
	if c.RadiusKM <= 0 {
		c.RadiusKM = 0.5
	}
	if c.SlotIntervalMin <= 0 {
		c.SlotIntervalMin = 10
	}
	if c.HorizonMin <= 0 {
		c.HorizonMin = 120
	}
	if c.ToleranceMin <= 0 {
		c.ToleranceMin = 10
	}
	if c.CameraSaturation <= 0 {
		c.CameraSaturation = 5
	}
	if c.Alternatives <= 0 {
		c.Alternatives = 3
	}
	return c
}

// Request is one optimization request from the API layer.
type Request struct {
	Route          []models.Point
	BaselineETAMin float64
	RadiusKM       float64 // optional override
	HorizonMin     int     // optional override
}

type Optimizer struct {
	reader  Reader
	cameras []models.Camera
	cfg     Config
	now     func() time.Time
}

func New(reader Reader, cameras []models.Camera, cfg Config) *Optimizer {
	return &Optimizer{
		reader:  reader,
		cameras: cameras,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Optimize runs the full search: collect cameras, snapshot current CI, sweep
// the time slots, select the optimum. Missing per-camera data is absorbed
// with DefaultCI, never retried; a request matching zero cameras returns a
// well-formed zero-confidence result instead of an error. The context bounds
// the O(slots x cameras) store reads.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (*models.RouteOptimizationResult, error) {
	cfg := o.cfg
	if req.RadiusKM > 0 {
		cfg.RadiusKM = req.RadiusKM
	}
	if req.HorizonMin > 0 {
		cfg.HorizonMin = req.HorizonMin
	}
	now := o.now().UTC()

	routeCams := geo.CamerasAlongRoute(req.Route, o.cameras, cfg.RadiusKM)
	if len(routeCams) == 0 {
		return o.noCamerasResult(now, req.BaselineETAMin), nil
	}

	// Current snapshot.
	currentCI := make(map[string]float64, len(routeCams))
	sum := 0.0
	for _, rc := range routeCams {
		ci := DefaultCI
		state, err := o.reader.GetCIState(ctx, rc.CameraID)
		if err == nil && state != nil {
			ci = state.CI
		}
		currentCI[rc.CameraID] = ci
		sum += ci
	}
	currentAvg := sum / float64(len(routeCams))

	forecasts := make(map[string]*models.CIForecast, len(routeCams))
	for _, rc := range routeCams {
		f, err := o.reader.GetForecast(ctx, rc.CameraID)
		if err == nil && f != nil {
			forecasts[rc.CameraID] = f
		}
	}

	// Time-slot sweep.
	var slots []models.DepartureOption
	for t := 0; t <= cfg.HorizonMin; t += cfg.SlotIntervalMin {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slots = append(slots, o.buildSlot(t, now, req.BaselineETAMin, routeCams, currentCI, forecasts, cfg))
	}

	// Lowest mean CI wins; the stable sort keeps the earlier slot on ties
	// because slots are generated in ascending time order.
	ranked := make([]models.DepartureOption, len(slots))
	copy(ranked, slots)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageCI < ranked[j].AverageCI
	})

	best := ranked[0]
	best.Confidence = o.confidence(len(routeCams), currentAvg, best, cfg)

	alts := make([]models.DepartureOption, 0, cfg.Alternatives)
	for _, s := range ranked[1:] {
		if len(alts) == cfg.Alternatives {
			break
		}
		s.Confidence = o.confidence(len(routeCams), currentAvg, s, cfg)
		alts = append(alts, s)
	}

	timeSaved := slots[0].TravelTimeMin - best.TravelTimeMin
	if timeSaved < 0 {
		timeSaved = 0
	}

	return &models.RouteOptimizationResult{
		GeneratedAt:      now,
		Best:             best,
		Alternatives:     alts,
		Cameras:          routeCams,
		CurrentAverageCI: currentAvg,
		TimeSavedMin:     timeSaved,
	}, nil
}

func (o *Optimizer) buildSlot(t int, now time.Time, baselineETA float64, routeCams []models.RouteCameraInfo, currentCI map[string]float64, forecasts map[string]*models.CIForecast, cfg Config) models.DepartureOption {
	cameraCI := make(map[string]float64, len(routeCams))
	sum := 0.0
	maxCI := 0.0
	for _, rc := range routeCams {
		ci := currentCI[rc.CameraID]
		if t > 0 {
			if f, ok := forecasts[rc.CameraID]; ok {
				if h, within := f.HorizonAt(t, cfg.ToleranceMin); within {
					ci = h.PredictedCI
				}
			}
		}
		cameraCI[rc.CameraID] = ci
		sum += ci
		if ci > maxCI {
			maxCI = ci
		}
	}
	avg := sum / float64(len(routeCams))
	travel := baselineETA * ETAMultiplier(avg)
	departAt := now.Add(time.Duration(t) * time.Minute)
	return models.DepartureOption{
		DepartAt:       departAt,
		MinutesFromNow: t,
		CameraCI:       cameraCI,
		AverageCI:      avg,
		MaxCI:          maxCI,
		TravelTimeMin:  travel,
		ETA:            departAt.Add(time.Duration(travel * float64(time.Minute))),
	}
}

// ETAMultiplier maps an aggregate CI to a travel-time multiplier. The bands
// are fixed; the result never speeds a trip up below the baseline.
func ETAMultiplier(ci float64) float64 {
	switch {
	case ci < 0.2:
		return 1.0
	case ci < 0.4:
		return 1.1
	case ci < 0.6:
		return 1.25
	case ci < 0.8:
		return 1.5
	default:
		return 2.0
	}
}

// confidence blends camera coverage, the CI improvement over departing now,
// and the recency of the slot (confidence decays linearly to a floor at the
// horizon end). Rounded to two decimals.
func (o *Optimizer) confidence(cameraCount int, currentAvg float64, slot models.DepartureOption, cfg Config) float64 {
	coverage := math.Min(1.0, float64(cameraCount)/float64(cfg.CameraSaturation))
	improvement := congestion.Clip01((currentAvg - slot.AverageCI) * 2.0)
	recency := 1.0 - 0.6*float64(slot.MinutesFromNow)/float64(cfg.HorizonMin)

	conf := 0.4*coverage + 0.35*improvement + 0.25*recency
	return math.Round(congestion.Clip01(conf)*100) / 100
}

// noCamerasResult is the degenerate terminal: depart now, zero confidence,
// zero time saved, default-light-traffic travel estimate.
func (o *Optimizer) noCamerasResult(now time.Time, baselineETA float64) *models.RouteOptimizationResult {
	travel := baselineETA * ETAMultiplier(DefaultCI)
	best := models.DepartureOption{
		DepartAt:       now,
		MinutesFromNow: 0,
		CameraCI:       map[string]float64{},
		AverageCI:      DefaultCI,
		MaxCI:          DefaultCI,
		TravelTimeMin:  travel,
		ETA:            now.Add(time.Duration(travel * float64(time.Minute))),
		Confidence:     0,
	}
	return &models.RouteOptimizationResult{
		GeneratedAt:      now,
		Best:             best,
		CurrentAverageCI: DefaultCI,
		TimeSavedMin:     0,
	}
}
