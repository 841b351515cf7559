package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to the HTTP status the API answers with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrGroupNotFound),
		errors.Is(err, core.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUsernameAlreadyExists),
		errors.Is(err, core.ErrGroupAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrAuthenticationFailed),
		errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrUnsupportedCredentialType):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, core.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError aborts the request with a JSON error body derived from err.
// Internal failures are reported without their message.
func RespondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": core.Kind(err)}

	switch status {
	case http.StatusInternalServerError:
		body["error_description"] = "Internal server error"
	case http.StatusUnauthorized:
		// Never tell unknown users apart from wrong passwords.
		body["error"] = "authentication_failed"
		body["error_description"] = core.ErrAuthenticationFailed.Error()
		if errors.Is(err, core.ErrUnsupportedCredentialType) {
			body["error"] = core.Kind(err)
			body["error_description"] = core.ErrUnsupportedCredentialType.Error()
		}
	default:
		body["error_description"] = err.Error()
	}

	var stepErr *services.StepError
	if errors.As(err, &stepErr) {
		body["step"] = stepErr.Step
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
