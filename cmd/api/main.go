package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/securepay/internal/api/handlers"
	"github.com/dvloznov/securepay/internal/api/middleware"
	"github.com/dvloznov/securepay/internal/config"
	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/inference"
	"github.com/dvloznov/securepay/internal/logger"
	"github.com/dvloznov/securepay/internal/metrics"
	"github.com/dvloznov/securepay/internal/model"
	"github.com/dvloznov/securepay/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(config.DefaultLogLevel, config.DefaultLogFormat)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Command-line flags override the environment
	var (
		port      = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		scalerURI = flag.String("scaler", cfg.ScalerURI, "Scaler artifact path or gs:// URI (or set SCALER_URI env)")
		modelURI  = flag.String("model", cfg.ModelURI, "Model artifact path or gs:// URI (or set MODEL_URI env)")
	)
	flag.Parse()
	cfg.Port, cfg.ScalerURI, cfg.ModelURI = *port, *scalerURI, *modelURI
	if err := cfg.Validate(); err != nil {
		bootLog := logger.New(cfg.LogLevel, cfg.LogFormat)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Load artifacts once; the server never starts without both
	store := storage.NewGCSStorageService(storage.Options{
		Endpoint:        cfg.GCSEndpoint,
		CredentialsFile: cfg.GCSCredentialsFile,
		Anonymous:       cfg.GCSAnonymous,
	})
	loader := model.NewLoader(store, log)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.ArtifactLoadTimeout)
	bundle, err := loader.LoadBundle(loadCtx, cfg.ScalerURI, cfg.ModelURI)
	cancelLoad()
	if err != nil {
		event := log.Fatal().Err(err)
		var artErr *domain.ArtifactError
		if errors.As(err, &artErr) {
			event = event.Str("kind", artErr.Kind).Str("uri", artErr.URI)
		}
		event.Msg("Failed to load model artifacts")
	}

	adapter, err := inference.NewAdapterFromBundle(bundle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create inference adapter")
	}

	m := metrics.New()
	m.SetArtifact("scaler", adapter.ScalerKind(), bundle.ScalerURI)
	m.SetArtifact("classifier", adapter.ClassifierKind(), bundle.ModelURI)

	// Initialize handlers
	scanHandler := handlers.NewScanHandler(inference.NewScanner(adapter, m), log)
	healthHandler := handlers.NewHealthHandler(adapter)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", scanHandler.ShowForm)
	mux.HandleFunc("POST /scan", scanHandler.SubmitForm)

	mux.HandleFunc("POST /api/predict", scanHandler.Predict)
	mux.HandleFunc("POST /api/features", scanHandler.Features)
	mux.HandleFunc("GET /api/schema", scanHandler.Schema)

	mux.Handle("GET /health", healthHandler)
	mux.Handle("GET /metrics", m.Handler())

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.Metrics(m)(
					middleware.CORS(cfg.CORSAllowedOrigin)(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("scaler", adapter.ScalerKind()).
			Str("classifier", adapter.ClassifierKind()).
			Msg("Starting SecurePay server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
