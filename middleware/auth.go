package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pg-backend/models"
	"pg-backend/services"
	"pg-backend/utils"
)

const sessionKey = "session"

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Session, error)
}

// RequireSession rejects requests without a live bearer session and makes
// the admin's email the actor of every change made by the request.
func RequireSession(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session", nil)
			return
		}
		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), sess.Email))
		c.Next()
	}
}

// SessionFrom returns the session set by RequireSession.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok
}
