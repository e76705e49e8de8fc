package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pattibytes-backend/internal/apperrors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

// handleDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and returned as an opaque 500 so internals never leak to clients.
func handleDomainError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case apperrors.IsIneligiblePromotion(err):
		var e apperrors.IneligiblePromotionError
		errors.As(err, &e)
		c.JSON(http.StatusUnprocessableEntity, errorResponse(e.Reason))
	case apperrors.IsInvalidTransition(err):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse("The order was modified concurrently, please retry"))
	case apperrors.IsExternalService(err):
		c.JSON(http.StatusBadGateway, errorResponse("A dependent service is unavailable"))
	default:
		log.Printf("gateway: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}
