package handler

import (
	"context"
	"net/http"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/internal/service"
	"payment-failure-monitor/pkg/response"

	"github.com/gin-gonic/gin"
)

// HealthCheckTimeout bounds all dependency pings of one GET /health.
const HealthCheckTimeout = 5 * time.Second

// StatusInfo is the static descriptor served at GET /.
type StatusInfo struct {
	Service     string          `json:"service"`
	Version     string          `json:"version"`
	RecordStore string          `json:"record_store"`
	SinkFailure string          `json:"sink_failure_mode"`
	Configured  map[string]bool `json:"configured"`
	Endpoints   []string        `json:"endpoints"`
}

// Endpoints lists the routes registered by SetupRouter.
var Endpoints = []string{
	"GET /",
	"GET /health",
	"GET /logs",
	"POST /test",
	"POST /webhook",
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status       string                      `json:"status"`
	Timestamp    string                      `json:"timestamp"`
	Uptime       float64                     `json:"uptime"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

type logsResponse struct {
	Logs          []domain.LogEntry `json:"logs"`
	Total         int               `json:"total"`
	LifetimeTotal int64             `json:"lifetime_total"`
}

type sinkTestResponse struct {
	Success      bool   `json:"success"`
	GmailTest    string `json:"gmail_test"`
	AirtableTest string `json:"airtable_test"`
}

// OpsHandler serves the status, health, diagnostics and sink test endpoints.
type OpsHandler struct {
	tester    ports.SinkTester
	activity  ports.ActivityLog
	status    StatusInfo
	startedAt time.Time
	checkers  []ports.HealthChecker
	now       func() time.Time
}

func NewOpsHandler(tester ports.SinkTester, activity ports.ActivityLog, status StatusInfo, startedAt time.Time, checkers ...ports.HealthChecker) *OpsHandler {
	if status.Endpoints == nil {
		status.Endpoints = Endpoints
	}
	return &OpsHandler{
		tester:    tester,
		activity:  activity,
		status:    status,
		startedAt: startedAt,
		checkers:  checkers,
		now:       time.Now,
	}
}

// Status handles GET /.
func (h *OpsHandler) Status(c *gin.Context) {
	response.OK(c, h.status)
}

// Health handles GET /health. It is a liveness probe and always answers 200;
// dependency failures only mark the status degraded.
func (h *OpsHandler) Health(c *gin.Context) {
	deps := make(map[string]dependencyStatus, len(h.checkers))
	status := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	for _, checker := range h.checkers {
		if err := checker.Ping(ctx); err != nil {
			deps[checker.Name()] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			status = "degraded"
		} else {
			deps[checker.Name()] = dependencyStatus{Status: "healthy"}
		}
	}

	now := h.now()
	c.JSON(http.StatusOK, healthResponse{
		Status:       status,
		Timestamp:    now.UTC().Format(domain.ISOTimestamp),
		Uptime:       now.Sub(h.startedAt).Seconds(),
		Dependencies: deps,
	})
}

// Logs handles GET /logs. total is the current buffer occupancy.
func (h *OpsHandler) Logs(c *gin.Context) {
	response.OK(c, logsResponse{
		Logs:          h.activity.Recent(service.RecentLogLimit),
		Total:         h.activity.Size(),
		LifetimeTotal: h.activity.Lifetime(),
	})
}

// RunSinkTest handles POST /test.
func (h *OpsHandler) RunSinkTest(c *gin.Context) {
	result, err := h.tester.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, sinkTestResponse{
		Success:      true,
		GmailTest:    result.EmailResult,
		AirtableTest: result.RecordResult,
	})
}
