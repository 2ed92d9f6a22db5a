package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/russe11bryan/TripTally-sub000/catalog"
	"github.com/russe11bryan/TripTally-sub000/config"
	"github.com/russe11bryan/TripTally-sub000/detector"
	"github.com/russe11bryan/TripTally-sub000/forecast"
	"github.com/russe11bryan/TripTally-sub000/motion"
	"github.com/russe11bryan/TripTally-sub000/pipeline"
	"github.com/russe11bryan/TripTally-sub000/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	cams, err := catalog.Load(cfg.Processor.CatalogPath)
	if err != nil {
		log.Fatalf("camera catalog load failed: %v", err)
	}
	log.Printf("camera catalog loaded: %d cameras", cams.Len())

	st, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()
	log.Printf("store connected: backend=%s", cfg.Store.Backend)

	var history *store.HistoryStore
	if cfg.Store.HistoryDSN != "" {
		history, err = store.NewHistoryStore(ctx, cfg.Store.HistoryDSN)
		if err != nil {
			log.Fatalf("history store init failed: %v", err)
		}
		defer history.Close()
		log.Printf("history store connected")
	} else {
		log.Printf("history persistence disabled, forecaster cold-starts on restart")
	}

	frameCache, err := motion.NewDiskCache(cfg.Processor.FrameCacheDir)
	if err != nil {
		log.Fatalf("frame cache init failed: %v", err)
	}

	var publisher pipeline.Publisher = pipeline.NopPublisher{}
	if cfg.Processor.MQTTURL != "" {
		mp, err := pipeline.NewMQTTPublisher(cfg.Processor.MQTTURL)
		if err != nil {
			log.Printf("mqtt connection failed, live feed disabled: %v", err)
		} else {
			publisher = mp
			defer mp.Close()
			log.Printf("mqtt connected: %s", cfg.Processor.MQTTURL)
		}
	}

	historyBuf := forecast.NewHistory(forecast.HistoryCapacity)
	trained := forecast.LoadTrained(cfg.Processor.ModelDir, historyBuf)
	engine := forecast.NewEngine(historyBuf, trained)

	fetcher := pipeline.NewFetcher(
		time.Duration(cfg.Processor.FetchTimeoutSec)*time.Second,
		cfg.Processor.FetchRetries,
		time.Second,
	)
	det := detector.NewHTTPDetector(cfg.Processor.DetectorURL, time.Duration(cfg.Processor.FetchTimeoutSec)*time.Second)

	proc := pipeline.NewProcessor(
		st,
		history,
		engine,
		motion.NewScorer(frameCache),
		det,
		fetcher,
		publisher,
		cfg.Weights,
		cams.Cameras(),
		cfg.Processor.Parallelism,
	)
	if err := proc.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	go serveHTTP(cfg.Processor.MetricsAddr, st)
	if history != nil {
		go pruneLoop(ctx, history, time.Duration(cfg.Store.HistoryRetentionHours)*time.Hour)
	}

	interval := time.Duration(cfg.Processor.IntervalSec) * time.Second
	log.Printf("processor running: interval=%s cameras=%d strategy=%s",
		interval, cams.Len(), engine.StrategyName())

	proc.Run(ctx, interval)
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	ttl := time.Duration(cfg.Store.StateTTLSec) * time.Second
	if cfg.Store.Backend == "memory" {
		return store.NewMemoryStore(ttl), nil
	}
	return store.NewRedisStore(ctx, cfg.Store.RedisURL, ttl)
}

func pruneLoop(ctx context.Context, history *store.HistoryStore, retention time.Duration) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pruned, err := history.Prune(ctx, retention)
			if err != nil {
				log.Printf("history prune failed: %v", err)
				continue
			}
			log.Printf("history pruned: %d rows older than %s", pruned, retention)
		case <-ctx.Done():
			return
		}
	}
}

func serveHTTP(addr string, st store.Store) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !st.HealthCheck(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "store unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}
