package response

import (
	"errors"
	"net/http"

	"payment-failure-monitor/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// ErrorResponse is the JSON error body for operator endpoints.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id"`
}

// OK sends a 200 response with data as the body, unwrapped.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and uses its status and code, otherwise returns 500.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "SYS_000"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
		code = appErr.Code
	}

	c.JSON(status, ErrorResponse{
		Success:   false,
		Error:     apperror.Message(err),
		ErrorCode: code,
		RequestID: RequestID(c),
	})
}

// WebhookError rejects a provider delivery. The provider only inspects the
// status, so the body is plain text.
func WebhookError(c *gin.Context, err error) {
	c.String(http.StatusBadRequest, "Webhook error: %s", apperror.Message(err))
}

// RequestID retrieves the request ID from context, or generates one.
func RequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
