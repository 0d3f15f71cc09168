// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

// ErrorResponse is the standard error envelope for all error responses.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "VALIDATION_ERROR").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details maps each rejected field to its message.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes for machine-readable error identification.
const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeForbidden    = "FORBIDDEN"
	ErrorCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal     = "INTERNAL_ERROR"
	ErrorCodeTimeout      = "TIMEOUT"
	ErrorCodeBadRequest   = "BAD_REQUEST"
	ErrorCodeStorage      = "STORAGE_ERROR"
	ErrorCodeMethodDenied = "METHOD_NOT_ALLOWED"
)

// internalMessage is returned for every 5xx whose cause must not leak.
const internalMessage = "an internal error occurred"

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeMethodDenied:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps a domain error to an HTTP status and error body.
// A passed request deadline is a timeout even when a store wrapped it.
// Storage failures and unknown errors get a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, NewErrorResponseWithDetails(
			ErrorCodeValidation,
			"request validation failed",
			validationErr.Fields(),
		)

	case errors.Is(err, ErrBinding):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeBadRequest, "malformed request")

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, "Quote not found")

	case domain.IsForbidden(err):
		return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, NewErrorResponse(ErrorCodeTimeout, "request timed out")

	case domain.IsStorage(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeStorage, internalMessage)

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, internalMessage)
	}
}

// GetTraceID returns the OpenTelemetry trace id of the request, if any.
func GetTraceID(c *gin.Context) string {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.SpanContext().HasTraceID() {
		return ""
	}

	return span.SpanContext().TraceID().String()
}

// HandleError writes the mapped error response. Server-side failures are
// logged with their cause since the body only carries a generic message.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	logFailure(c, status, err)

	c.JSON(status, resp)
}

// AbortWithError is HandleError for middleware: it stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	logFailure(c, status, err)

	c.AbortWithStatusJSON(status, resp)
}

// RespondWithErrorCode writes an adapter-level error that did not come from
// the domain, such as a malformed body.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.JSON(HTTPStatusFromCode(code), resp)
}

// AbortWithErrorCode is RespondWithErrorCode for middleware.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

func logFailure(c *gin.Context, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}

	logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
		slog.Int("status", status),
		slog.Any("error", err),
	)
}
