package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/goodloop/leads/internal/config"
	"github.com/goodloop/leads/internal/database"
	"github.com/goodloop/leads/internal/mailer"
	"github.com/goodloop/leads/internal/repository"
	"github.com/goodloop/leads/internal/server"
	"github.com/goodloop/leads/internal/service"
)

func main() {
	ctx := context.Background()
	log := logrus.New()

	// Load .env if present, then configuration from environment variables
	_ = godotenv.Load()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.App.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.Infof("Starting leads service in %s mode", cfg.App.Environment)

	// Initialize database connections
	db, err := database.NewDB(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("Error closing database connections: %v", err)
		}
	}()

	// Email dispatch is best-effort; an unconfigured provider disables it
	var couponMailer service.Mailer
	if cfg.Email.Enabled() {
		couponMailer = mailer.NewClient(cfg.Email.ResendAPIKey, cfg.Email.From, log)
	} else {
		couponMailer = mailer.NewDisabled(log)
		log.Warn("Email provider not configured, coupon emails will be skipped")
	}

	store := repository.NewStore(db.Postgres)
	leads := service.NewLeadService(store, couponMailer, cfg.App.PartnerSlug, log)

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register the lead submission handler
	mux.Handle("/api/leads", server.New(leads, log).Handler())

	// Add health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"ok","service":"goodloop-leads","hostname":"%s"}`, hostname)
		w.Write([]byte(response))
	})

	// Add database health check endpoint
	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Postgres.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"postgres unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","postgres":"connected"}`))
	})

	// Add Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Create server; h2c lets us serve HTTP/2 without TLS
	srv := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		Handler:        h2c.NewHandler(mux, &http2.Server{}),
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting leads service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited gracefully")
}
