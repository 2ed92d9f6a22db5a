// Package store defines the state/forecast store contract and its adapters.
// Semantics every adapter must preserve: at most one current state per
// camera, forecast writes fully replace the prior vector, and current-state
// and forecast records expire softly after a TTL. A read after expiry
// returns (nil, nil); absence is not an error.
package store

import (
	"context"
	"time"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// DefaultTTL is the soft expiry applied to current-state and forecast
// records.
const DefaultTTL = 600 * time.Second

// Store is the state/forecast store contract. Exactly one writer (the
// per-cycle processor) per camera; any number of concurrent readers.
type Store interface {
	SaveCIState(ctx context.Context, state *models.CIState) error
	GetCIState(ctx context.Context, cameraID string) (*models.CIState, error)
	SaveForecast(ctx context.Context, forecast *models.CIForecast) error
	GetForecast(ctx context.Context, cameraID string) (*models.CIForecast, error)
	SaveCameraMetadata(ctx context.Context, camera models.Camera) error
	GetCameraMetadata(ctx context.Context, cameraID string) (*models.Camera, error)
	ListCameras(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) bool
	Close() error
}
