package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/ocrserve/internal/api"
	"github.com/dgallion1/ocrserve/internal/config"
	"github.com/dgallion1/ocrserve/internal/inference"
	"github.com/dgallion1/ocrserve/internal/pageload"
	"github.com/dgallion1/ocrserve/internal/pipeline"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// The engine is expensive to construct (model weights, native OCR
	// state), so it is built lazily on the first parse request.
	engines := inference.NewHolder(func() (inference.Engine, error) {
		switch cfg.EngineKind {
		case "remote":
			log.Info("initializing remote engine", "url", cfg.EngineURL)
			return inference.NewRemoteEngine(cfg.EngineURL, cfg.EngineTimeout), nil
		case "tesseract":
			log.Info("initializing tesseract engine", "languages", cfg.TesseractLangs)
			return inference.NewTesseractEngine(cfg.TesseractLangs), nil
		default:
			return nil, fmt.Errorf("unknown engine kind %q", cfg.EngineKind)
		}
	})

	stats := inference.NewEngineStats(time.Hour)
	runner := pipeline.NewRunner(engines, stats, log, cfg.PromptType, pageload.Options{
		DPI:          cfg.RenderDPI,
		PdftoppmPath: cfg.PdftoppmPath,
	})

	srv := api.NewServer(runner, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting ocrserve", "port", cfg.Port, "engine", cfg.EngineKind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
