package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Standardized APIError response
type APIError struct {
	StatusCode int         `json:"-"`              // HTTP status code, not included in JSON response body for error itself
	Code       string      `json:"code,omitempty"` // Application-specific error code
	Message    string      `json:"message"`
	Details    string      `json:"details,omitempty"`
	Data       interface{} `json:"data,omitempty"` // Structured context, e.g. missing ingredients
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WithData attaches structured context to the error.
func (e *APIError) WithData(data interface{}) *APIError {
	e.Data = data
	return e
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort() // Abort further processing if it's a middleware or critical error
}

// Common Error Constants
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// Helper to return a standard validation error
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}
