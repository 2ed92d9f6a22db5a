// Package catalog loads the static camera catalog. The catalog is read once
// at startup and served from memory; cameras never change during a process
// lifetime.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/russe11bryan/TripTally-sub000/models"
)

type Catalog struct {
	cameras []models.Camera
	byID    map[string]models.Camera
}

// Load reads a JSON array of cameras from path. Entries without a camera_id
// are rejected; duplicate ids keep the first occurrence.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read camera catalog: %w", err)
	}
	var cameras []models.Camera
	if err := json.Unmarshal(data, &cameras); err != nil {
		return nil, fmt.Errorf("parse camera catalog: %w", err)
	}
	return New(cameras)
}

// New builds a catalog from an already-loaded camera list.
func New(cameras []models.Camera) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]models.Camera, len(cameras))}
	for _, cam := range cameras {
		if cam.CameraID == "" {
			return nil, fmt.Errorf("camera catalog entry missing camera_id (lat=%v lng=%v)", cam.Lat, cam.Lng)
		}
		if _, dup := c.byID[cam.CameraID]; dup {
			continue
		}
		c.byID[cam.CameraID] = cam
		c.cameras = append(c.cameras, cam)
	}
	return c, nil
}

// Cameras returns all catalog cameras in load order.
func (c *Catalog) Cameras() []models.Camera {
	return c.cameras
}

// Get looks a camera up by id.
func (c *Catalog) Get(cameraID string) (models.Camera, bool) {
	cam, ok := c.byID[cameraID]
	return cam, ok
}

// Len returns the number of cameras.
func (c *Catalog) Len() int {
	return len(c.cameras)
}
