package handler

import (
	"time"

	"payment-failure-monitor/internal/adapter/http/middleware"
	"payment-failure-monitor/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc     ports.WebhookService
	Tester         ports.SinkTester
	ActivityLog    ports.ActivityLog
	TokenSvc       ports.TokenService // nil = operator endpoints unauthenticated
	RateLimitStore middleware.Limiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Status         StatusInfo
	StartedAt      time.Time
	Logger         zerolog.Logger // access log; never the activity logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	ops := NewOpsHandler(deps.Tester, deps.ActivityLog, deps.Status, deps.StartedAt, deps.HealthCheckers...)
	r.GET("/", ops.Status)
	r.GET("/health", ops.Health)

	operator := middleware.OperatorAuth(deps.TokenSvc, deps.Logger)
	r.GET("/logs", operator, ops.Logs)
	r.POST("/test",
		operator,
		middleware.RateLimiter(deps.RateLimitStore, "sink_test", middleware.SinkTestRule, deps.Logger),
		ops.RunSinkTest,
	)

	webhook := NewWebhookHandler(deps.WebhookSvc)
	r.POST("/webhook", webhook.Receive)

	return r
}
