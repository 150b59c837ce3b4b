package handlers

import (
	"errors"
	"net/http"

	"rentalhub/internal/domain"
	"rentalhub/internal/http/middleware"
	"rentalhub/internal/payments"
	"rentalhub/internal/services"
	"rentalhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsIllegalTransition(err):
		var ite *domain.IllegalTransitionError
		errors.As(err, &ite)
		respondError(c, http.StatusConflict, "illegal_transition", err.Error(), gin.H{"status": ite.From, "event": ite.Event})
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsUpstream(err):
		respondError(c, http.StatusBadGateway, "upstream_error", err.Error(), upstreamDetails(err))
	default:
		utils.LogError(middleware.GetRequestID(c), "http", "internal_error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}

// upstreamDetails passes the provider's own error body through so clients
// can show its most specific message.
func upstreamDetails(err error) any {
	var apiErr *payments.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	return gin.H{"errors": apiErr.Errors, "message": apiErr.Message}
}
