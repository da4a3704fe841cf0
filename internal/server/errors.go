package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	consultdomain "github.com/worktugal/worktugal/internal/consult/domain"
	leaddomain "github.com/worktugal/worktugal/internal/lead/domain"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	reviewdomain "github.com/worktugal/worktugal/internal/review/domain"
)

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if fields := validationFields(err); fields != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_signature",
			Message: "webhook signature verification failed",
		}
	case errors.Is(err, paymentdomain.ErrMissingFields),
		errors.Is(err, paymentdomain.ErrSessionNotPaid):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, reviewdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// validationFields flattens any domain's validation error into the common
// enumerated 400 shape.
func validationFields(err error) []fieldError {
	var checkupErr *checkupdomain.ValidationError
	if errors.As(err, &checkupErr) {
		fields := make([]fieldError, 0, len(checkupErr.Fields))
		for _, f := range checkupErr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return fields
	}

	var paymentErr *paymentdomain.ValidationError
	if errors.As(err, &paymentErr) {
		fields := make([]fieldError, 0, len(paymentErr.Fields))
		for _, f := range paymentErr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return fields
	}

	var partnerErr *partnerdomain.ValidationError
	if errors.As(err, &partnerErr) {
		fields := make([]fieldError, 0, len(partnerErr.Fields))
		for _, f := range partnerErr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return fields
	}

	var leadErr *leaddomain.ValidationError
	if errors.As(err, &leadErr) {
		fields := make([]fieldError, 0, len(leadErr.Fields))
		for _, f := range leadErr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return fields
	}

	return nil
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, checkupdomain.ErrNotFound) ||
		errors.Is(err, reviewdomain.ErrNotFound) ||
		errors.Is(err, consultdomain.ErrBookingNotFound) ||
		errors.Is(err, partnerdomain.ErrSubmissionNotFound)
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
