// Package detector defines the contract to the external object-detection
// service and an HTTP client adapter for it. Letterboxing and coordinate
// correction are the detector's responsibility; boxes arrive in the image's
// native pixel space.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// Detector produces per-frame vehicle detections from a raw image.
type Detector interface {
	Detect(ctx context.Context, image []byte) (*models.DetectionResult, error)
}

// HTTPDetector posts frames to a detection service and decodes the response.
type HTTPDetector struct {
	url    string
	client *http.Client
}

type detectionResponse struct {
	Boxes       []models.Box `json:"boxes"`
	Scores      []float64    `json:"scores"`
	ClassIDs    []int        `json:"class_ids"`
	ImageWidth  int          `json:"image_width"`
	ImageHeight int          `json:"image_height"`
}

func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, image []byte) (*models.DetectionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector returned %d: %s", resp.StatusCode, body)
	}

	var dr detectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}

	return &models.DetectionResult{
		Boxes:        dr.Boxes,
		Scores:       dr.Scores,
		ClassIDs:     dr.ClassIDs,
		VehicleCount: len(dr.Boxes),
		InferenceMS:  float64(time.Since(start).Milliseconds()),
		ImageWidth:   dr.ImageWidth,
		ImageHeight:  dr.ImageHeight,
	}, nil
}
