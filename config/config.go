package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/russe11bryan/TripTally-sub000/congestion"
	"github.com/russe11bryan/TripTally-sub000/optimizer"
)

type Config struct {
	Store     StoreConfig
	Processor ProcessorConfig
	Optimizer OptimizerConfig
	Weights   congestion.Weights
}

type StoreConfig struct {
	Backend               string // "redis" or "memory"
	RedisURL              string
	HistoryDSN            string // empty disables history persistence
	StateTTLSec           int
	HistoryRetentionHours int
}

type ProcessorConfig struct {
	CatalogPath     string
	DetectorURL     string
	MQTTURL         string // empty disables the live feed
	FrameCacheDir   string
	ModelDir        string
	MetricsAddr     string
	IntervalSec     int
	Parallelism     int
	FetchTimeoutSec int
	FetchRetries    int
}

type OptimizerConfig struct {
	RadiusKM        float64
	SlotIntervalMin int
	HorizonMin      int
	ToleranceMin    int
}

// Params translates the env-derived block into the optimizer's search
// parameters. Fields the environment does not cover keep the optimizer's own
// defaults.
func (c OptimizerConfig) Params() optimizer.Config {
	return optimizer.Config{
		RadiusKM:        c.RadiusKM,
		SlotIntervalMin: c.SlotIntervalMin,
		HorizonMin:      c.HorizonMin,
		ToleranceMin:    c.ToleranceMin,
	}
}

func LoadConfig() (*Config, error) {
	intervalSec, err := getIntEnv("PROCESS_INTERVAL_SEC", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESS_INTERVAL_SEC: %w", err)
	}
	parallelism, err := getIntEnv("CAMERA_PARALLELISM", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid CAMERA_PARALLELISM: %w", err)
	}
	fetchTimeout, err := getIntEnv("FETCH_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SEC: %w", err)
	}
	fetchRetries, err := getIntEnv("FETCH_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_RETRIES: %w", err)
	}
	stateTTL, err := getIntEnv("STATE_TTL_SEC", 600)
	if err != nil {
		return nil, fmt.Errorf("invalid STATE_TTL_SEC: %w", err)
	}
	retentionHours, err := getIntEnv("HISTORY_RETENTION_HOURS", 48)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_RETENTION_HOURS: %w", err)
	}

	weights, err := loadWeights()
	if err != nil {
		return nil, err
	}

	radius, err := getFloatEnv("OPTIMIZER_RADIUS_KM", 0.5)
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIMIZER_RADIUS_KM: %w", err)
	}
	slotInterval, err := getIntEnv("OPTIMIZER_SLOT_INTERVAL_MIN", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIMIZER_SLOT_INTERVAL_MIN: %w", err)
	}
	horizon, err := getIntEnv("OPTIMIZER_HORIZON_MIN", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIMIZER_HORIZON_MIN: %w", err)
	}
	tolerance, err := getIntEnv("OPTIMIZER_TOLERANCE_MIN", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIMIZER_TOLERANCE_MIN: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:               getEnv("STORE_BACKEND", "redis"),
			RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
			HistoryDSN:            getEnv("HISTORY_DSN", ""),
			StateTTLSec:           stateTTL,
			HistoryRetentionHours: retentionHours,
		},
		Processor: ProcessorConfig{
			CatalogPath:     getEnv("CAMERA_CATALOG", "cameras.json"),
			DetectorURL:     getEnv("DETECTOR_URL", "http://localhost:9001/detect"),
			MQTTURL:         getEnv("MQTT_URL", ""),
			FrameCacheDir:   getEnv("FRAME_CACHE_DIR", "/var/cache/triptally/frames"),
			ModelDir:        getEnv("MODEL_DIR", "models"),
			MetricsAddr:     getEnv("METRICS_ADDR", ":8080"),
			IntervalSec:     intervalSec,
			Parallelism:     parallelism,
			FetchTimeoutSec: fetchTimeout,
			FetchRetries:    fetchRetries,
		},
		Optimizer: OptimizerConfig{
			RadiusKM:        radius,
			SlotIntervalMin: slotInterval,
			HorizonMin:      horizon,
			ToleranceMin:    tolerance,
		},
		Weights: weights,
	}

	if cfg.Store.Backend != "redis" && cfg.Store.Backend != "memory" {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want redis or memory", cfg.Store.Backend)
	}
	if cfg.Processor.IntervalSec <= 0 {
		return nil, fmt.Errorf("PROCESS_INTERVAL_SEC must be positive, got %d", cfg.Processor.IntervalSec)
	}
	return cfg, nil
}

// loadWeights reads the CI weight overrides and validates them once. Bad
// weights are fatal at boot, never recoverable at runtime.
func loadWeights() (congestion.Weights, error) {
	w := congestion.DefaultWeights()
	var err error
	if w.CountSaturation, err = getFloatEnv("CI_COUNT_SATURATION", w.CountSaturation); err != nil {
		return w, fmt.Errorf("invalid CI_COUNT_SATURATION: %w", err)
	}
	if w.AreaSaturation, err = getFloatEnv("CI_AREA_SATURATION", w.AreaSaturation); err != nil {
		return w, fmt.Errorf("invalid CI_AREA_SATURATION: %w", err)
	}
	if w.MotionSaturation, err = getFloatEnv("CI_MOTION_SATURATION", w.MotionSaturation); err != nil {
		return w, fmt.Errorf("invalid CI_MOTION_SATURATION: %w", err)
	}
	if w.DensityWeight, err = getFloatEnv("CI_DENSITY_WEIGHT", w.DensityWeight); err != nil {
		return w, fmt.Errorf("invalid CI_DENSITY_WEIGHT: %w", err)
	}
	if w.AreaWeight, err = getFloatEnv("CI_AREA_WEIGHT", w.AreaWeight); err != nil {
		return w, fmt.Errorf("invalid CI_AREA_WEIGHT: %w", err)
	}
	if w.RawWeight, err = getFloatEnv("CI_RAW_WEIGHT", w.RawWeight); err != nil {
		return w, fmt.Errorf("invalid CI_RAW_WEIGHT: %w", err)
	}
	if w.ReliefWeight, err = getFloatEnv("CI_RELIEF_WEIGHT", w.ReliefWeight); err != nil {
		return w, fmt.Errorf("invalid CI_RELIEF_WEIGHT: %w", err)
	}
	if !w.Validate() {
		return w, fmt.Errorf("CI weights out of range: saturations must be positive and each weight pair must sum to 1")
	}
	return w, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
