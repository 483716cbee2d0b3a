package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/services"
	"pg-backend/utils"
)

// --- Controller ---
type GuestController struct {
	GuestSvc *services.GuestService
	log      *zap.Logger
}

// NewGuestController Constructor
func NewGuestController(svc *services.GuestService, log *zap.Logger) *GuestController {
	return &GuestController{GuestSvc: svc, log: log}
}

// GET /api/guests?q=
func (gc *GuestController) GetGuests(c *gin.Context) {
	guests, err := gc.GuestSvc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, gc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guests)
}

// GET /api/guests/:id
func (gc *GuestController) GetGuestByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	details, err := gc.GuestSvc.Details(c.Request.Context(), id)
	if err != nil {
		respondError(c, gc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, details)
}

// POST /api/guests
func (gc *GuestController) CreateGuest(c *gin.Context) {
	var in services.GuestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	g, err := gc.GuestSvc.Add(c.Request.Context(), in)
	if err != nil {
		respondError(c, gc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, g)
}

// PUT /api/guests/:id
func (gc *GuestController) UpdateGuest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in services.GuestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	g, err := gc.GuestSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, gc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, g)
}

// DELETE /api/guests/:id
func (gc *GuestController) DeleteGuest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := gc.GuestSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, gc.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
