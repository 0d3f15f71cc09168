package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/jsamuelsen/classquotes/internal/adapters/clients"
	"github.com/jsamuelsen/classquotes/internal/domain"
)

// ErrorResponse is the service's error envelope:
//
//	{"error": {"code": "...", "message": "...", "details": {...}}, "traceId": "..."}
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail is the body of an ErrorResponse.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ParseErrorResponse decodes an error envelope, or returns nil when body is
// empty or not an envelope.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.Error.Code == "" && errResp.Error.Message == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError turns a failed exchange into a domain error. resp is nil when
// clientErr is set; entityID feeds NotFoundError.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation, entityID)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("circuit breaker open during %s", operation))
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("max retries exceeded during %s", operation))
	}

	return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed: %v", operation, err))
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation, entityID string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, status)
	if errResp != nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError("quote", entityID)

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if errResp != nil && len(errResp.Error.Details) > 0 {
			return validationFromDetails(errResp.Error.Details)
		}

		return domain.NewValidationError("", message)

	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)

	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")

	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")

	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	}

	return domain.NewValidationError("", message)
}

// validationFromDetails keeps every field violation, ordered by field.
func validationFromDetails(details map[string]string) error {
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	violations := make([]domain.FieldViolation, 0, len(fields))
	for _, field := range fields {
		violations = append(violations, domain.FieldViolation{Field: field, Message: details[field]})
	}

	return &domain.ValidationError{Violations: violations}
}
