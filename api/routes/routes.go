package routes

import (
	"net/http"

	"servimarket/api/handler"
	"servimarket/api/middleware"
	"servimarket/internal/entity"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type HealthChecker interface {
	Ping() error
}

type Router struct {
	Echo           *echo.Echo
	Verification   *handler.VerificationHandler
	AuthMiddleware middleware.AuthMiddleware
	SubmitRate     middleware.Limiter
	DecisionRate   middleware.Limiter
	Health         HealthChecker
	Gatherer       prometheus.Gatherer
	Logger         *logrus.Logger
}

func NewRouter(e *echo.Echo, verificationHandler *handler.VerificationHandler, authMiddleware middleware.AuthMiddleware, logger *logrus.Logger) *Router {
	return &Router{
		Echo:           e,
		Verification:   verificationHandler,
		AuthMiddleware: authMiddleware,
		SubmitRate:     middleware.PerMinute(5),
		DecisionRate:   middleware.PerMinute(10),
		Logger:         logger,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/healthz", r.healthz)
	if r.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})))
	}

	admin := middleware.RequireRole(entity.UserRoleAdmin)
	verification := e.Group("/api/verification", r.AuthMiddleware.RequireAuth)
	verification.POST("/submit-documents", r.Verification.SubmitDocuments, middleware.RateLimit(r.SubmitRate, r.Logger))
	verification.GET("/status", r.Verification.GetStatus)
	verification.PUT("/update-status", r.Verification.UpdateStatus, admin, middleware.RateLimit(r.DecisionRate, r.Logger))
	verification.GET("/pending", r.Verification.GetPending, admin)
}

func (r *Router) healthz(c echo.Context) error {
	if r.Health != nil {
		if err := r.Health.Ping(); err != nil {
			if r.Logger != nil {
				r.Logger.WithError(err).Warn("health check failed")
			}
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"success": false, "error": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
