package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"bucketwise/internal/blob"
	"bucketwise/internal/categorize"
	"bucketwise/internal/config"
	"bucketwise/internal/extraction"
	"bucketwise/internal/llm"
	"bucketwise/internal/logger"
	"bucketwise/internal/server"
	"bucketwise/internal/service"
	"bucketwise/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st    store.Store
		blobs blob.Store
	)
	if cfg.UseMemoryStore {
		log.Info().Msg("using in-memory store and blob storage for local development")
		st = store.NewMemoryStore()
		blobs = blob.NewMemoryStore()
	} else {
		firestoreClient, err := firestore.NewClient(ctx, cfg.GoogleCloudProject)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Firestore client")
		}
		defer firestoreClient.Close()
		st = store.NewFirestoreStore(firestoreClient)

		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Cloud Storage client")
		}
		defer storageClient.Close()
		blobs = blob.NewGCSStore(storageClient.Bucket(cfg.UploadsBucket))
	}

	// Without an API key every model-backed path degrades gracefully:
	// extraction rejects PDFs/images and categorization marks transactions
	// for review instead of guessing.
	var gen llm.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			Temperature:     float32(cfg.Temperature),
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		gen = gemini
		log.Info().Str("model", cfg.GeminiModel).Msg("Gemini configured")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, document extraction and AI categorization disabled")
	}

	resolver := categorize.New(st, gen, log)
	extractor := extraction.New(gen, log)

	srv := server.New(
		service.NewUploadService(st, blobs, resolver, extractor, log),
		service.NewTransactionService(st, resolver, log),
		service.NewMonthService(st, blobs, log),
		service.NewBucketService(st, log),
		service.NewPaystubService(st, blobs, extractor, log),
		service.NewRecurringBillService(st, log),
		service.NewDataService(st, blobs, log),
		log,
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
