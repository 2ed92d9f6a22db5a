package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/russe11bryan/TripTally-sub000/models"
)

type expiringState struct {
	state     models.CIState
	expiresAt time.Time
}

type expiringForecast struct {
	forecast  models.CIForecast
	expiresAt time.Time
}

// MemoryStore implements Store in process memory with the same soft-TTL
// semantics as the Redis adapter. Used by tests and single-node local runs.
type MemoryStore struct {
	mu        sync.RWMutex
	states    map[string]expiringState
	forecasts map[string]expiringForecast
	cameras   map[string]models.Camera
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		states:    make(map[string]expiringState),
		forecasts: make(map[string]expiringForecast),
		cameras:   make(map[string]models.Camera),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *MemoryStore) SaveCIState(_ context.Context, state *models.CIState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.CameraID] = expiringState{state: *state, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetCIState(_ context.Context, cameraID string) (*models.CIState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.states[cameraID]
	if !ok || s.now().After(rec.expiresAt) {
		return nil, nil
	}
	state := rec.state
	return &state, nil
}

func (s *MemoryStore) SaveForecast(_ context.Context, forecast *models.CIForecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts[forecast.CameraID] = expiringForecast{forecast: *forecast, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetForecast(_ context.Context, cameraID string) (*models.CIForecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.forecasts[cameraID]
	if !ok || s.now().After(rec.expiresAt) {
		return nil, nil
	}
	forecast := rec.forecast
	return &forecast, nil
}

func (s *MemoryStore) SaveCameraMetadata(_ context.Context, camera models.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[camera.CameraID] = camera
	return nil
}

func (s *MemoryStore) GetCameraMetadata(_ context.Context, cameraID string) (*models.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	camera, ok := s.cameras[cameraID]
	if !ok {
		return nil, nil
	}
	return &camera, nil
}

func (s *MemoryStore) ListCameras(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.cameras))
	for id := range s.cameras {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) bool { return true }

func (s *MemoryStore) Close() error { return nil }

// setClock lets tests advance time past the TTL.
func (s *MemoryStore) setClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
