package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/api"
	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/db"
	"simrig-booking-backend/internal/notification"
	"simrig-booking-backend/internal/occupancy"
	"simrig-booking-backend/internal/queue"
	"simrig-booking-backend/internal/session"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "simrigd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; availability push is disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	clock := shopclock.New(cfg.Shop.Timezone, cfg.Shop.FallbackTimezone)
	logger.Printf("shop clock resolved to %s", clock.Location())

	ledger := booking.NewLedger(appStore, clock, cfg)
	queueSvc := queue.NewService(appStore, cfg)
	sessionSvc := session.NewService(appStore, clock, ledger, queueSvc)
	occupancySvc := occupancy.NewService(appStore, clock)
	hub := occupancy.NewHub()

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	monitor := occupancy.NewMonitor(occupancySvc, hub, workerPool, 30*time.Second)
	go monitor.Run(ctx)

	handler := api.NewHandler(appStore, cfg, clock, ledger, occupancySvc, hub, monitor, queueSvc, sessionSvc, &webpushOptions)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
