// Package motion derives a frame-difference motion score per camera. One
// downscaled grayscale previous frame is cached per camera so the score
// survives between processing cycles.
package motion

import (
	"image"
	"sort"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// scaleWidth is the fixed downscale width; height follows the aspect ratio.
const scaleWidth = 160

// maxScore is the upper bound of the motion scale.
const maxScore = 10.0

// FrameCache stores the previous downscaled grayscale frame per camera. Any
// medium works (disk, memory, blob store); a missing frame is (nil, nil).
type FrameCache interface {
	GetPrevious(cameraID string) (*image.Gray, error)
	Put(cameraID string, frame *image.Gray) error
}

// Scorer computes motion scores against cached previous frames.
type Scorer struct {
	cache FrameCache
}

func NewScorer(cache FrameCache) *Scorer {
	return &Scorer{cache: cache}
}

// Score downscales img, diffs it against the cached previous frame and
// returns the median absolute pixel difference scaled to [0,10]. The cache is
// always overwritten with the current frame. A missing previous frame or a
// resolution change scores 0: the first observation always reads as no
// motion.
func (s *Scorer) Score(cameraID string, img image.Image) (float64, error) {
	current := Downscale(img)

	prev, err := s.cache.GetPrevious(cameraID)
	if err != nil {
		return 0, err
	}

	score := 0.0
	if prev != nil && prev.Bounds() == current.Bounds() {
		score = diffScore(prev, current)
	}

	if err := s.cache.Put(cameraID, current); err != nil {
		return 0, err
	}
	return score, nil
}

// Downscale converts img to grayscale at the fixed cache width.
func Downscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return image.NewGray(image.Rect(0, 0, 1, 1))
	}
	scaledH := h * scaleWidth / w
	if scaledH < 1 {
		scaledH = 1
	}
	dst := image.NewGray(image.Rect(0, 0, scaleWidth, scaledH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func diffScore(prev, current *image.Gray) float64 {
	diffs := make([]float64, 0, len(current.Pix))
	for i := range current.Pix {
		d := int(current.Pix[i]) - int(prev.Pix[i])
		if d < 0 {
			d = -d
		}
		diffs = append(diffs, float64(d))
	}
	if len(diffs) == 0 {
		return 0
	}
	sort.Float64s(diffs)
	median := stat.Quantile(0.5, stat.Empirical, diffs, nil)
	return median / 255.0 * maxScore
}
