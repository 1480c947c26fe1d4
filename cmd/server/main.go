package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"citas/internal/config"
	"citas/internal/database"
	"citas/internal/handlers"
	"citas/internal/logging"
	"citas/internal/services"
	"citas/internal/session"
	"citas/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Appointment store and reminder ledger
	var (
		appointmentStore store.AppointmentStore
		ledger           store.ReminderLedger
	)
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.InitDB(cfg.DatabaseURL, logger, database.Options{})
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer database.Close(db)
		appointmentStore = store.NewGormAppointmentStore(db)
		ledger = store.NewGormReminderLedger(db)
	default:
		logger.Warn("Using in-memory appointment store; data is lost on restart")
		appointmentStore = store.NewMemoryAppointmentStore()
		ledger = store.NewMemoryReminderLedger()
	}

	// Preferences and contacts
	var local store.LocalStore
	switch cfg.PreferenceStore {
	case "redis":
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefsDB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()
		local = store.NewRedisLocalStore(client)
	default:
		local = store.NewMemoryLocalStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.MustNewMetrics(reg)

	emailService := services.NewEmailService(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	smsService := services.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set; email delivery will fail")
	}
	if cfg.TwilioAccountSID == "" {
		logger.Warn("TWILIO_ACCOUNT_SID not set; SMS delivery will fail")
	}

	tasks := services.NewTaskGroup(logger, metrics)
	appointments := services.NewAppointmentService(services.AppointmentServiceConfig{
		Store:       appointmentStore,
		SMS:         smsService,
		Tasks:       tasks,
		Logger:      logger,
		Metrics:     metrics,
		StrictPatch: cfg.StrictPatch,
	})
	reminders := services.NewReminderScheduler(services.ReminderSchedulerConfig{
		Preferences: local,
		Email:       emailService,
		SMS:         smsService,
		Location:    loc,
		Logger:      logger,
		Metrics:     metrics,
	})
	sessions := session.NewManager(cfg.SessionTimeout, local, logger)

	var worker *services.ReminderWorker
	if cfg.ReminderWorkerEnabled {
		worker = services.NewReminderWorker(services.ReminderWorkerConfig{
			Appointments: appointmentStore,
			Ledger:       ledger,
			Contacts:     local,
			Scheduler:    reminders,
			Email:        emailService,
			SMS:          smsService,
			Interval:     cfg.ReminderWorkerInterval,
			Location:     loc,
			Logger:       logger,
			Metrics:      metrics,
		})
		worker.Start(ctx)
	}

	h := handlers.New(handlers.Deps{
		Appointments:   appointments,
		Reminders:      reminders,
		Sessions:       sessions,
		Email:          emailService,
		SMS:            smsService,
		Metrics:        metrics,
		Logger:         logger,
		Location:       loc,
		EditWindowDays: cfg.EditWindowDays,
	})
	router := handlers.NewRouter(h, handlers.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins(),
		NotifyPerMinute: cfg.MaxRequestsPerMin,
		MetricsGatherer: reg,
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sessions.Close()
	if err := tasks.Wait(shutdownCtx); err != nil {
		logger.Warn("Background tasks still running at shutdown", zap.Error(err))
	}
	if worker != nil {
		select {
		case <-worker.Done():
		case <-shutdownCtx.Done():
		}
	}

	logger.Info("Server stopped gracefully")
}
