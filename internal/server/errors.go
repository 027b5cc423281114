package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	identitydomain "github.com/scribelabs/scribe/internal/identity/domain"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

type validationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, code, message string) *validationError {
	return &validationError{Field: field, Code: code, Message: message}
}

// AbortWithError converts domain errors into HTTP responses. Unknown errors
// are logged as 500 without leaking internals.
func AbortWithError(c *gin.Context, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request_body",
			"message": "request body must be valid JSON",
		}})
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "validation_failed",
			"message": fieldErrs.Error(),
		}})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		}})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    err.Error(),
		"message": err.Error(),
	}})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, aidomain.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, aidomain.ErrInvalidInput),
		errors.Is(err, userdomain.ErrInvalidUser),
		errors.Is(err, usagedomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrInvalidSignature),
		errors.Is(err, billingdomain.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, billingdomain.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, billingdomain.ErrMissingUserID):
		return http.StatusUnprocessableEntity
	case errors.Is(err, aidomain.ErrProviderUnavailable),
		errors.Is(err, aidomain.ErrEmptyCompletion),
		errors.Is(err, billingdomain.ErrProviderUnavailable),
		errors.Is(err, identitydomain.ErrIdentityUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, usagedomain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
