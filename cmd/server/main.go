package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"arkival/internal/config"
	"arkival/internal/handler"
	"arkival/internal/repository/postgres"
	"arkival/internal/router"
	"arkival/internal/service"
	s3storage "arkival/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	collectionRepo := postgres.NewCollectionRepo(db)
	assetRepo := postgres.NewAssetRepo(db)
	mediaRepo := postgres.NewMediaFileRepo(db)
	ingestRepo := postgres.NewIngestRepo(db)
	resolver := postgres.NewReferenceResolver(assetRepo)
	tx := postgres.NewTransactor(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.Auth)
	collectionSvc := service.NewCollectionService(collectionRepo, assetRepo, resolver, cfg.Guard, cfg.Ingest.ResolverParallelism)
	assetSvc := service.NewAssetService(collectionRepo, assetRepo, mediaRepo, resolver, tx, cfg.Guard, cfg.Ingest.ResolverParallelism)
	ingestSvc := service.NewIngestService(ingestRepo, collectionRepo, assetRepo, mediaRepo, s3Client, resolver, tx, cfg.Ingest, cfg.S3.Bucket)
	mediaSvc := service.NewMediaService(mediaRepo, s3Client, cfg.S3)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	collectionH := handler.NewCollectionHandler(collectionSvc)
	assetH := handler.NewAssetHandler(assetSvc)
	ingestH := handler.NewIngestHandler(ingestSvc)
	mediaH := handler.NewMediaHandler(mediaSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, authSvc, authH, collectionH, assetH, ingestH, mediaH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	// Let in-flight scans finish before the process exits.
	ingestSvc.Shutdown()
	return nil
}
