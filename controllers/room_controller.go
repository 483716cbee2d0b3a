package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/services"
	"pg-backend/utils"
)

type RoomController struct {
	RoomSvc *services.RoomService
	log     *zap.Logger
}

func NewRoomController(svc *services.RoomService, log *zap.Logger) *RoomController {
	return &RoomController{RoomSvc: svc, log: log}
}

type assignPayload struct {
	GuestID uint `json:"guestId" binding:"required"`
}

// GET /api/rooms
func (rc *RoomController) ListRooms(c *gin.Context) {
	rooms, err := rc.RoomSvc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GET /api/rooms/available
func (rc *RoomController) ListAvailable(c *gin.Context) {
	rooms, err := rc.RoomSvc.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GET /api/rooms/:number/occupants
func (rc *RoomController) Occupants(c *gin.Context) {
	number, ok := parseRoomNumber(c)
	if !ok {
		return
	}
	guests, err := rc.RoomSvc.OccupantsOf(c.Request.Context(), number)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guests)
}

// POST /api/rooms/:number/occupants
func (rc *RoomController) Assign(c *gin.Context) {
	number, ok := parseRoomNumber(c)
	if !ok {
		return
	}
	var payload assignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "guestId required")
		return
	}
	if err := rc.RoomSvc.Assign(c.Request.Context(), number, payload.GuestID); err != nil {
		respondError(c, rc.log, err)
		return
	}
	guests, err := rc.RoomSvc.OccupantsOf(c.Request.Context(), number)
	if err != nil {
		respondError(c, rc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guests)
}

// DELETE /api/rooms/:number/occupants/:guestId
func (rc *RoomController) Unassign(c *gin.Context) {
	number, ok := parseRoomNumber(c)
	if !ok {
		return
	}
	guestID, ok := parseID(c, "guestId")
	if !ok {
		return
	}
	if err := rc.RoomSvc.Unassign(c.Request.Context(), number, guestID); err != nil {
		respondError(c, rc.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
