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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pg-backend/config"
	"pg-backend/controllers"
	"pg-backend/metrics"
	"pg-backend/middleware"
	"pg-backend/repository"
	"pg-backend/routes"
	"pg-backend/services"
	"pg-backend/utils"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func openStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}

	mailer := utils.NewReminderMailer(utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		FromName: cfg.SMTPFromName,
	}, logger.Named("mail"))

	// Initialize services
	roomService := services.NewRoomService(store, logger.Named("rooms"))
	guestService := services.NewGuestService(store, logger.Named("guests"))
	paymentService := services.NewPaymentService(store, logger.Named("payments"), cfg.MonthlyRent, mailer)
	dashboardService := services.NewDashboardService(store, logger.Named("dashboard"))
	auditService := services.NewAuditService(store, logger.Named("audit"))
	authService := services.NewAuthService(store, logger.Named("auth"), cfg.SessionTTL)

	ctx := context.Background()
	if cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("admin seed failed", zap.Error(err))
		}
	} else {
		logger.Warn("ADMIN_PASSWORD not set; no admin seeded")
	}
	if err := roomService.Verify(ctx); err != nil {
		logger.Error("occupancy check failed at startup", zap.Error(err))
	} else {
		logger.Info("occupancy consistent")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	metrics.RegisterOccupancy(reg, logger.Named("metrics"), func() (metrics.Occupancy, error) {
		st, err := dashboardService.Stats(context.Background())
		return metrics.Occupancy{Guests: st.TotalGuests, FreeSlots: st.FreeSlots, Rooms: st.TotalRooms}, err
	})

	// Initialize controllers & router
	router := routes.SetupRouter(routes.Deps{
		Log:         logger.Named("http"),
		Rooms:       controllers.NewRoomController(roomService, logger),
		Guests:      controllers.NewGuestController(guestService, logger),
		Payments:    controllers.NewPaymentController(paymentService, logger),
		Dashboard:   controllers.NewDashboardController(dashboardService, auditService, logger),
		Auth:        controllers.NewAuthController(authService, logger, httpMetrics.LoginFailures.Inc),
		Sessions:    authService,
		Metrics:     httpMetrics,
		Gatherer:    reg,
		LoginLimit:  middleware.NewIPRateLimiter(cfg.LoginRatePerMin),
		CORSOrigins: cfg.CORSOrigins,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}
