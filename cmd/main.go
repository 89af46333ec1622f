package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servimarket/api/handler"
	apiMiddleware "servimarket/api/middleware"
	"servimarket/api/routes"
	"servimarket/config"
	"servimarket/internal/metrics"
	"servimarket/internal/repository"
	"servimarket/internal/service"
	"servimarket/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := config.ConnectionDb(cfg)
	if err != nil {
		logger.WithError(err).Fatal("connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("database handle")
	}
	defer sqlDB.Close()
	logger.Info("success connect to db")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	meter := metrics.New(registry)

	emailSender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom)
	if !emailSender.Configured() {
		logger.Warn("RESEND_API_KEY or EMAIL_FROM missing, verification emails will fail")
	}
	dispatcher := service.NewDispatcher(emailSender, logger, meter, service.DispatcherConfig{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
		SendTimeout: 10 * time.Second,
		AppBaseURL:  cfg.AppBaseURL,
	})
	dispatcher.Start()

	verificationService := service.NewVerificationService(
		repository.NewStore(db),
		dispatcher,
		service.RealClock{},
		meter,
		logger,
		service.VerificationConfig{
			HistoryLimit:     10,
			ReviewInboxEmail: cfg.ReviewInboxEmail,
			AppBaseURL:       cfg.AppBaseURL,
		},
	)

	validate := validator.New()
	verificationHandler := handler.NewVerificationHandler(verificationService, validate, logger)

	accessManager := utils.JWTManager{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		Leeway: 30 * time.Second,
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = handler.HTTPErrorHandler(logger)
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &accessManager, Logger: logger}
	router := routes.NewRouter(app, verificationHandler, authMiddleware, logger)
	router.Health = sqlDB
	router.Gatherer = registry
	if cfg.RedisURL != "" {
		options, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("invalid REDIS_URL")
		}
		redisClient := redis.NewClient(options)
		defer redisClient.Close()
		router.SubmitRate = apiMiddleware.NewRedisRateLimiter(redisClient, "submit-documents", 5, time.Minute)
		router.DecisionRate = apiMiddleware.NewRedisRateLimiter(redisClient, "update-status", 10, time.Minute)
		logger.Info("using redis rate limiter")
	}
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	dispatcher.Close()
}
