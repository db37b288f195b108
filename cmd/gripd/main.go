// Command gripd serves live grip classification: it subscribes to the
// landmark tracker stream, classifies each frame, and exposes health
// and Prometheus metrics endpoints. With no trained artifact present
// it stays up and simply emits no gesture signal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/cfg"
	"github.com/Aaryan09-coder/final-major-project-final/internal/classifier"
	"github.com/Aaryan09-coder/final-major-project-final/internal/metrics"
	"github.com/Aaryan09-coder/final-major-project-final/internal/storage"
	"github.com/Aaryan09-coder/final-major-project-final/internal/stream"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	grip := classifier.NewWithMetrics(c.ModelDir, metrics.NewWrapper(m))
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	frames := make(chan stream.Frame, 64)
	errs := make(chan error, 32)

	startMetricsServer(ctx, c, grip)

	ws := stream.NewWS(c.TrackerURL)
	go func() {
		if err := ws.Stream(ctx, frames, errs, c.Ping); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("tracker stream terminated")
			cancel()
		}
	}()

	var wg sync.WaitGroup
	startErrorHandler(ctx, &wg, errs, m)
	startFrameHandler(ctx, &wg, frames, grip, store, m)

	waitForShutdown(ctx, cancel, &wg)
}

func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

func startMetricsServer(ctx context.Context, c cfg.Settings, grip *classifier.GripClassifier) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			if grip.Available() {
				fmt.Fprintln(w, "OK")
			} else {
				fmt.Fprintln(w, "OK (no model loaded)")
			}
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.Info().Int("port", c.MetricsPort).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func startErrorHandler(ctx context.Context, wg *sync.WaitGroup, errs <-chan error, m *metrics.Metrics) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				m.ErrorsTotal.Inc()
				m.WSReconnects.Inc()
				log.Warn().Err(err).Msg("stream error")
			}
		}
	}()
}

func startFrameHandler(ctx context.Context, wg *sync.WaitGroup, frames <-chan stream.Frame, grip *classifier.GripClassifier, store *storage.Store, m *metrics.Metrics) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		var lastClosed, haveLast bool
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-frames:
				m.FramesReceived.Inc()

				pred := grip.Predict(frame.Hand)
				if pred == nil {
					continue
				}

				// Log on transitions only; per-frame logging would
				// drown everything at camera rate.
				if !haveLast || pred.IsClosed != lastClosed {
					log.Info().
						Bool("closed", pred.IsClosed).
						Float64("confidence", pred.Confidence).
						Msg("grip state changed")
					lastClosed, haveLast = pred.IsClosed, true
				}

				if store != nil {
					rec := storage.PredictionRecord{
						Timestamp:  frame.Ts,
						IsClosed:   pred.IsClosed,
						Confidence: pred.Confidence,
					}
					if err := store.RecordPrediction(rec); err != nil {
						log.Warn().Err(err).Msg("prediction audit write failed")
					}
				}
			}
		}
	}()
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()
	log.Info().Msg("shutdown complete")
}
