package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/services"
	"pg-backend/utils"
)

// respondError maps a service error to its HTTP status and error code.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONErrorCode(c, http.StatusBadRequest, "validation_failed", "validation failed", verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, services.ErrRoomFull):
		utils.JSONErrorCode(c, http.StatusConflict, "room_full", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidStatus):
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_status", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidMonth):
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_month", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.JSONErrorCode(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.JSONErrorCode(c, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}

func badRequest(c *gin.Context, message string) {
	utils.JSONErrorCode(c, http.StatusBadRequest, "bad_request", message, nil)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

func parseRoomNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		badRequest(c, "invalid room number")
		return 0, false
	}
	return n, true
}
