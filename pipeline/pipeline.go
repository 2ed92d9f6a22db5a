// Package pipeline runs the periodic per-camera processing cycle:
// download, detect, score motion, compute CI, persist, forecast, publish.
// Cameras are independent, so the cycle fans out with bounded parallelism;
// within one camera the steps are strictly sequential.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/russe11bryan/TripTally-sub000/congestion"
	"github.com/russe11bryan/TripTally-sub000/detector"
	"github.com/russe11bryan/TripTally-sub000/forecast"
	"github.com/russe11bryan/TripTally-sub000/models"
	"github.com/russe11bryan/TripTally-sub000/motion"
	"github.com/russe11bryan/TripTally-sub000/store"
)

// storeCallTimeout bounds every individual store write.
const storeCallTimeout = 5 * time.Second

type Processor struct {
	store       store.Store
	history     *store.HistoryStore // optional, nil disables persistence
	engine      *forecast.Engine
	scorer      *motion.Scorer
	detector    detector.Detector
	fetcher     *Fetcher
	publisher   Publisher
	weights     congestion.Weights
	cameras     []models.Camera
	parallelism int
	running     atomic.Bool
	now         func() time.Time
}

func NewProcessor(
	st store.Store,
	history *store.HistoryStore,
	engine *forecast.Engine,
	scorer *motion.Scorer,
	det detector.Detector,
	fetcher *Fetcher,
	publisher Publisher,
	weights congestion.Weights,
	cameras []models.Camera,
	parallelism int,
) *Processor {
	if parallelism <= 0 {
		parallelism = 4
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Processor{
		store:       st,
		history:     history,
		engine:      engine,
		scorer:      scorer,
		detector:    det,
		fetcher:     fetcher,
		publisher:   publisher,
		weights:     weights,
		cameras:     cameras,
		parallelism: parallelism,
		now:         time.Now,
	}
}

// Bootstrap writes the static camera metadata into the store and warms the
// forecaster's history buffers from the persisted rolling history.
func (p *Processor) Bootstrap(ctx context.Context) error {
	for _, cam := range p.cameras {
		if err := p.store.SaveCameraMetadata(ctx, cam); err != nil {
			return fmt.Errorf("save camera metadata %s: %w", cam.CameraID, err)
		}
	}
	if p.history == nil {
		return nil
	}
	warmed := 0
	for _, cam := range p.cameras {
		obs, err := p.history.Recent(ctx, cam.CameraID, forecast.HistoryCapacity)
		if err != nil {
			log.Printf("history warm failed for camera=%s: %v", cam.CameraID, err)
			continue
		}
		if len(obs) == 0 {
			continue
		}
		buf := make([]forecast.Observation, len(obs))
		for i, o := range obs {
			buf[i] = forecast.Observation{TS: o.TS, CI: o.CI}
		}
		p.engine.Warm(cam.CameraID, buf)
		warmed++
	}
	log.Printf("history warm: %d/%d cameras had persisted observations", warmed, len(p.cameras))
	return nil
}

// Run executes cycles on the given interval until the context is cancelled.
// The first cycle runs immediately. A tick that arrives while a cycle is
// still in flight is skipped, never interleaved.
func (p *Processor) Run(ctx context.Context, interval time.Duration) {
	p.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.RunCycle(ctx)
		case <-ctx.Done():
			log.Printf("processor shutting down")
			return
		}
	}
}

// RunCycle processes every camera once with bounded parallelism. Per-camera
// failures are logged and counted; they never cascade to other cameras.
func (p *Processor) RunCycle(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		cyclesSkipped.Inc()
		log.Printf("previous cycle still running, skipping")
		return
	}
	defer p.running.Store(false)

	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for _, cam := range p.cameras {
		cam := cam
		g.Go(func() error {
			if err := p.processCamera(gctx, cam); err != nil {
				camerasFailed.Inc()
				log.Printf("camera %s cycle failed: %v", cam.CameraID, err)
				return nil // a failed camera is retried on the next cycle
			}
			camerasProcessed.Inc()
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("processing cycle completed: %d cameras (%.2fs)", len(p.cameras), time.Since(start).Seconds())
}

func (p *Processor) processCamera(ctx context.Context, cam models.Camera) error {
	raw, err := p.fetcher.Fetch(ctx, cam.ImageURL)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()

	det, err := p.detector.Detect(ctx, raw)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	if det.ImageWidth == 0 || det.ImageHeight == 0 {
		det.ImageWidth = bounds.Dx()
		det.ImageHeight = bounds.Dy()
	}
	det.WeightedCount = congestion.WeightedCount(det.ClassIDs)
	det.AreaRatio = congestion.AreaRatio(det.Boxes, float64(det.ImageWidth*det.ImageHeight))

	motionScore, err := p.scorer.Score(cam.CameraID, img)
	if err != nil {
		return fmt.Errorf("motion score: %w", err)
	}

	now := p.now().UTC().Truncate(time.Second)
	state := &models.CIState{
		CameraID:      cam.CameraID,
		TS:            now,
		CI:            congestion.CI(p.weights, det.WeightedCount, det.AreaRatio, motionScore),
		VehicleCount:  det.VehicleCount,
		WeightedCount: det.WeightedCount,
		AreaRatio:     det.AreaRatio,
		MotionScore:   motionScore,
		ImageWidth:    det.ImageWidth,
		ImageHeight:   det.ImageHeight,
		Temporal:      congestion.TemporalFeatures(now),
	}

	sctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	err = p.store.SaveCIState(sctx, state)
	cancel()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	statesStored.Inc()

	if p.history != nil {
		hctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
		if err := p.history.Append(hctx, cam.CameraID, state.TS, state.CI); err != nil {
			log.Printf("history append failed for camera=%s: %v", cam.CameraID, err)
		}
		cancel()
	}

	p.engine.Observe(cam.CameraID, state)
	fc := p.engine.Forecast(state)

	sctx, cancel = context.WithTimeout(ctx, storeCallTimeout)
	err = p.store.SaveForecast(sctx, fc)
	cancel()
	if err != nil {
		return fmt.Errorf("save forecast: %w", err)
	}
	forecastsStored.Inc()

	if err := p.publisher.PublishState(state); err != nil {
		log.Printf("publish state failed for camera=%s: %v", cam.CameraID, err)
	} else {
		updatesPublished.Inc()
	}
	if err := p.publisher.PublishForecast(fc); err != nil {
		log.Printf("publish forecast failed for camera=%s: %v", cam.CameraID, err)
	} else {
		updatesPublished.Inc()
	}
	return nil
}
