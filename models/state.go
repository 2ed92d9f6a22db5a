package models

import "time"

// TemporalFeatures is the cyclical time-of-day encoding attached to every
// state row so midnight and 23:59 are numerically adjacent.
type TemporalFeatures struct {
	MinuteOfDay int     `json:"minute_of_day"`
	Hour        int     `json:"hour"`
	DayOfWeek   int     `json:"day_of_week"`
	IsWeekend   bool    `json:"is_weekend"`
	SinTime     float64 `json:"sin_time"`
	CosTime     float64 `json:"cos_time"`
}

// CIState is the canonical per-camera, per-timestamp congestion record.
// Superseded, never merged, by the next cycle's record. CI is always in [0,1].
type CIState struct {
	CameraID      string           `json:"camera_id"`
	TS            time.Time        `json:"ts"`
	CI            float64          `json:"ci"`
	VehicleCount  int              `json:"vehicle_count"`
	WeightedCount float64          `json:"weighted_count"`
	AreaRatio     float64          `json:"area_ratio"`
	MotionScore   float64          `json:"motion_score"`
	ImageWidth    int              `json:"image_width"`
	ImageHeight   int              `json:"image_height"`
	Temporal      TemporalFeatures `json:"temporal"`
}
