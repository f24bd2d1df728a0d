package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pos_backend/internal/middleware"
	"pos_backend/internal/repositories"
	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps engine errors onto API errors. op names the failed
// operation in the log line.
func respondServiceError(c *gin.Context, err error, op string) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		utils.LogInfo(op+": insufficient stock", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock,
			"Insufficient stock for one or more items.", err.Error()).WithData(gin.H{"missing": stockErr.Missing}))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidTransition, "Status transition not allowed.", err.Error()))
	case errors.Is(err, services.ErrMenuItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found or inactive.", err.Error()))
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrLineItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order item not found.", err.Error()))
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
	case errors.Is(err, services.ErrIngredientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Ingredient not found.", err.Error()))
	case errors.Is(err, services.ErrTableUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table is not available.", err.Error()))
	case errors.Is(err, services.ErrLockTimeout), errors.Is(err, repositories.ErrLockTimeout):
		utils.LogError(err, op+": lock timeout")
		c.Header("Retry-After", "1")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Resource busy, please retry.", ""))
	default:
		// Includes ErrDuplicateCode after its retry and ErrRefundInvariant.
		utils.LogError(err, op+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+op+".", "Internal error"))
	}
}

func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := utils.StrToPositiveInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

// parseOptionalID reads an optional positive id from the query string.
func parseOptionalID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := utils.StrToPositiveInt64(raw)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return nil, false
	}
	return &id, true
}

// parsePaging reads page/page_size with defaults.
func parsePaging(c *gin.Context, defaultSize int) (int, int, bool) {
	page, pageSize := 1, defaultSize
	if s := c.Query("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			utils.RespondValidationFailed(c, "page must be a positive integer")
			return 0, 0, false
		}
		page = n
	}
	if s := c.Query("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			utils.RespondValidationFailed(c, "page_size must be between 1 and 200")
			return 0, 0, false
		}
		pageSize = n
	}
	return page, pageSize, true
}

func currentUserID(c *gin.Context) (int64, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "Missing user ID"))
		return 0, false
	}
	return uid, true
}
