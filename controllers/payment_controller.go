package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/services"
	"pg-backend/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaymentController struct {
	PaymentSvc *services.PaymentService
	log        *zap.Logger
}

func NewPaymentController(svc *services.PaymentService, log *zap.Logger) *PaymentController {
	return &PaymentController{PaymentSvc: svc, log: log}
}

type statusPayload struct {
	Month  string `json:"month" form:"month"`
	Status string `json:"status" form:"status"`
}

// monthParam defaults a blank month to the current one.
func (pc *PaymentController) monthParam(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return pc.PaymentSvc.CurrentMonth().String()
	}
	return raw
}

// POST /api/guests/:id/payment
// Takes month and status from the JSON body or the query string.
func (pc *PaymentController) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload statusPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			badRequest(c, "invalid payload")
			return
		}
	}
	if payload.Month == "" {
		payload.Month = c.Query("month")
	}
	if payload.Status == "" {
		payload.Status = c.Query("status")
	}

	rec, err := pc.PaymentSvc.SetStatus(c.Request.Context(), id, pc.monthParam(payload.Month), payload.Status)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rec)
}

// GET /api/guests/:id/payment?month=
func (pc *PaymentController) GetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	month := pc.monthParam(c.Query("month"))
	status, err := pc.PaymentSvc.GetStatus(c.Request.Context(), id, month)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"guestId": id, "month": month, "status": status})
}

// GET /api/guests/:id/payments
func (pc *PaymentController) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := pc.PaymentSvc.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// POST /api/guests/:id/reminder
func (pc *PaymentController) SendReminder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := pc.PaymentSvc.SendReminder(c.Request.Context(), id); err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusAccepted, gin.H{"sent": true})
}

// GET /api/payments?month=&status=
func (pc *PaymentController) MonthStatuses(c *gin.Context) {
	rows, err := pc.PaymentSvc.MonthStatuses(c.Request.Context(), pc.monthParam(c.Query("month")), c.Query("status"))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rows)
}

// GET /api/payments/report?month=
func (pc *PaymentController) Report(c *gin.Context) {
	month := pc.monthParam(c.Query("month"))
	var buf bytes.Buffer
	if err := pc.PaymentSvc.MonthReport(c.Request.Context(), month, &buf); err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="payments-%s.xlsx"`, month))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GET /api/dashboard/summary
func (pc *PaymentController) Summary(c *gin.Context) {
	sum, err := pc.PaymentSvc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, sum)
}
