package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitebuilder/internal/cache"
	"sitebuilder/internal/config"
	"sitebuilder/internal/data"
	"sitebuilder/internal/handler"
	"sitebuilder/internal/logger"
	"sitebuilder/internal/middleware"
	"sitebuilder/internal/service"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB.DSN, "migrations"); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite content cache...")
	contentCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer contentCache.Close()
	log.Info("Cache initialized.")

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	pageRepository := data.NewSQLPageRepository(db)
	versionRepository := data.NewSQLVersionRepository(db)
	tokenRepository := data.NewSQLTokenRepository(db)

	locks := service.NewPageLocks()
	registryService := service.NewRegistryService(pageRepository, versionRepository)
	draftService := service.NewDraftService(pageRepository, versionRepository, locks)
	publishService := service.NewPublishService(pageRepository, versionRepository, contentCache, locks, log)
	previewService := service.NewPreviewService(pageRepository, versionRepository, tokenRepository, cfg.Preview.DefaultTTL)
	readerService := service.NewReaderService(pageRepository, versionRepository, contentCache, cfg.Cache.TTL, log)

	// --- Published Pointer Recovery ---
	// An interrupted publish can leave a frozen version without the page
	// pointer advance; the version rows are the source of truth, so repair
	// the pointers before serving traffic.
	log.Info("Checking published pointers...")
	if err := publishService.RepairPublishedPointers(context.Background()); err != nil {
		log.Fatal(err, "Failed to repair published pointers")
	}
	log.Info("Published pointers consistent.")

	siteHandler := handler.NewSiteHandler(readerService, previewService, log)
	editorHandler := handler.NewEditorHandler(registryService, draftService, publishService, previewService, log)
	seoHandler := handler.NewSeoHandler(readerService, cfg.Server.BaseURL)

	// Authorization of editor requests is the identity collaborator's job;
	// it fronts this service and strips or sets the editor identity header.
	authzMiddleware := func(next http.Handler) http.Handler { return next }
	errorMiddleware := middleware.Error(log)

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(siteHandler, editorHandler, seoHandler, authzMiddleware, errorMiddleware)

	// --- Background Maintenance ---
	// Periodically sweep expired preview tokens; resolution already treats
	// them as gone, so this only reclaims storage.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := previewService.SweepExpired(sweepCtx); err != nil {
					log.Error(err, "Failed to sweep expired preview tokens")
				} else if n > 0 {
					log.Info(fmt.Sprintf("Swept %d expired preview tokens", n))
				}
			}
		}
	}()

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
