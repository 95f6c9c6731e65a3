// Package main initializes and starts the GopherQR HTTP server,
// setting up configuration, logging, database connections, the cache,
// services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GopherQR/internal/cache"
	"github.com/atinyakov/GopherQR/internal/config"
	"github.com/atinyakov/GopherQR/internal/db"
	"github.com/atinyakov/GopherQR/internal/encoder"
	"github.com/atinyakov/GopherQR/internal/logger"
	"github.com/atinyakov/GopherQR/internal/repository"
	"github.com/atinyakov/GopherQR/internal/server/handler/http"
	"github.com/atinyakov/GopherQR/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// One cache instance shared by every service.
	c := cache.New()
	store := repository.NewPostgresStore(postgresDB)

	qrService := service.NewQrService(store, encoder.New(options.QrSize), c, zapLogger)
	userService := service.NewUserService(store, c, zapLogger)
	counter := service.NewRequestCounter()

	if options.CleanupInterval > 0 {
		db.StartOrphanCleaner(ctx, postgresDB, options.CleanupInterval, zapLogger, func(ids []int64) {
			qrService.EvictQr(ids...)
		})
	}

	qrHandler := &http.QrHandler{QrService: qrService, Counter: counter}
	userHandler := &http.UserHandler{UserService: userService}
	router := http.NewRouter(qrHandler, userHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
