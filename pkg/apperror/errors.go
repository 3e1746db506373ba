package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is a structured error that maps to HTTP responses.
// Code is the error kind discriminant; callers switch on it via KindOf.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail returns the message that is safe to show to a caller: the
// underlying library or service error text when present, else Message.
func (e *AppError) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Message flattens err into caller-safe text. Joined errors are reported
// one after another, separated by "; ".
func Message(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			parts = append(parts, Message(e))
		}
		return strings.Join(parts, "; ")
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return Message(appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}

// KindOf returns the Code of the first AppError in err's chain, or "".
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Error kinds.
const (
	KindVerification   = "WHK_001"
	KindEmailSink      = "SINK_001"
	KindRecordSink     = "SINK_002"
	KindTestHarness    = "TEST_001"
	KindInitialization = "SYS_004"
)

// ---- Webhook ingestion (WHK) ----

// ErrVerification rejects an inbound event whose signature or body is invalid.
func ErrVerification(err error) *AppError {
	return Wrap(KindVerification, "Webhook verification failed", http.StatusBadRequest, err)
}

// ---- Notification sinks (SINK) ----

func ErrEmailSink(err error) *AppError {
	return Wrap(KindEmailSink, "Email notification failed", http.StatusBadGateway, err)
}

// ErrRecordSink is surfaced to the provider as a 400 by the webhook handler.
func ErrRecordSink(err error) *AppError {
	return Wrap(KindRecordSink, "Record creation failed", http.StatusBadRequest, err)
}

// ---- Operator tooling (TEST) ----

func ErrTestHarness(err error) *AppError {
	return Wrap(KindTestHarness, "Sink test failed", http.StatusInternalServerError, err)
}

// ---- Security & Authentication (SEC) ----

func ErrInvalidToken() *AppError {
	return New("SEC_005", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrInitialization marks a startup failure. It is logged, never fatal.
func ErrInitialization(component string, err error) *AppError {
	return Wrap(KindInitialization, fmt.Sprintf("%s initialization failed", component), http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
