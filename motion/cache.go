package motion

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryCache keeps previous frames in process memory. Cheap, but frames are
// lost on restart so every camera cold-starts at motion 0.
type MemoryCache struct {
	mu     sync.Mutex
	frames map[string]*image.Gray
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{frames: make(map[string]*image.Gray)}
}

func (c *MemoryCache) GetPrevious(cameraID string) (*image.Gray, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[cameraID], nil
}

func (c *MemoryCache) Put(cameraID string, frame *image.Gray) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[cameraID] = frame
	return nil
}

// DiskCache persists previous frames as PNG files keyed by camera id, so
// motion scoring survives process restarts.
type DiskCache struct {
	dir string
}

func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) GetPrevious(cameraID string) (*image.Gray, error) {
	f, err := os.Open(c.path(cameraID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		// A corrupt cache file is equivalent to no previous frame.
		return nil, nil
	}
	if gray, ok := img.(*image.Gray); ok {
		return gray, nil
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray, nil
}

func (c *DiskCache) Put(cameraID string, frame *image.Gray) error {
	tmp := c.path(cameraID) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, c.path(cameraID))
}

func (c *DiskCache) path(cameraID string) string {
	// Camera ids come from the catalog, but keep path separators out anyway.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(cameraID)
	return filepath.Join(c.dir, safe+".png")
}
