package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pg-backend/middleware"
	"pg-backend/services"
	"pg-backend/utils"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthController struct {
	AuthSvc *services.AuthService
	log     *zap.Logger
	// onFailure is called for every rejected login; may be nil.
	onFailure func()
}

func NewAuthController(svc *services.AuthService, log *zap.Logger, onFailure func()) *AuthController {
	return &AuthController{AuthSvc: svc, log: log, onFailure: onFailure}
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	sess, err := ac.AuthSvc.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) && ac.onFailure != nil {
			ac.onFailure()
		}
		respondError(c, ac.log, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":     sess.Token,
		"email":     sess.Email,
		"expiresAt": sess.ExpiresAt,
	})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	if err := ac.AuthSvc.Logout(c.Request.Context(), sess.Token); err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"email": sess.Email, "expiresAt": sess.ExpiresAt})
}
