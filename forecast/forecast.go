// Package forecast produces multi-horizon congestion forecasts from the
// current CI state and a bounded per-camera observation history. Strategies
// are interchangeable at runtime; the engine falls back from the trained
// model to the statistical baseline per call.
package forecast

import (
	"sync"
	"time"

	"github.com/russe11bryan/TripTally-sub000/models"
)

const (
	// HorizonStepMin and HorizonMaxMin define the fixed forecast ladder:
	// 2,4,...,120 minutes.
	HorizonStepMin = 2
	HorizonMaxMin  = 120

	// HistoryCapacity bounds the per-camera observation buffer.
	HistoryCapacity = 60
)

// Strategy is the forecasting contract. GenerateForecast may fail at
// runtime; Available reports whether the strategy can serve at all (checked
// once at selection time).
type Strategy interface {
	GenerateForecast(state *models.CIState) (*models.CIForecast, error)
	Name() string
	Available() bool
}

// Ladder returns the fixed horizon offsets in minutes.
func Ladder() []int {
	var ladder []int
	for h := HorizonStepMin; h <= HorizonMaxMin; h += HorizonStepMin {
		ladder = append(ladder, h)
	}
	return ladder
}

// Observation is one (timestamp, CI) history entry.
type Observation struct {
	TS time.Time
	CI float64
}

// History holds a fixed-capacity ring of observations per camera. It lives
// inside the engine, is not externally visible, and is warmed from the
// history store at startup. Appends are synchronized; the processing loop is
// the single writer per camera.
type History struct {
	mu       sync.Mutex
	capacity int
	rings    map[string][]Observation
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{capacity: capacity, rings: make(map[string][]Observation)}
}

// Append records an observation, evicting the oldest entry at capacity.
func (h *History) Append(cameraID string, ts time.Time, ci float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring := append(h.rings[cameraID], Observation{TS: ts, CI: ci})
	if len(ring) > h.capacity {
		ring = ring[len(ring)-h.capacity:]
	}
	h.rings[cameraID] = ring
}

// Recent returns up to n most-recent observations, oldest first.
func (h *History) Recent(cameraID string, n int) []Observation {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring := h.rings[cameraID]
	if n > len(ring) {
		n = len(ring)
	}
	out := make([]Observation, n)
	copy(out, ring[len(ring)-n:])
	return out
}

// Len returns the number of buffered observations for the camera.
func (h *History) Len(cameraID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rings[cameraID])
}
