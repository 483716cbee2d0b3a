package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/services"
	"pg-backend/utils"
)

type DashboardController struct {
	DashboardSvc *services.DashboardService
	AuditSvc     *services.AuditService
	log          *zap.Logger
}

func NewDashboardController(dash *services.DashboardService, audit *services.AuditService, log *zap.Logger) *DashboardController {
	return &DashboardController{DashboardSvc: dash, AuditSvc: audit, log: log}
}

// GET /api/dashboard/stats
func (dc *DashboardController) Stats(c *gin.Context) {
	st, err := dc.DashboardSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, st)
}

// GET /api/audit?limit=
func (dc *DashboardController) Audit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	list, err := dc.AuditSvc.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}
