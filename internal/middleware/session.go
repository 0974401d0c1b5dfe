package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/config"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

const (
	cartOwnerKey = "cartOwner"
	sessionIDKey = "sessionID"
)

// CartSession decides whose cart a request works on: the authenticated user
// if there is one, otherwise the anonymous session named by the session
// cookie. A session cookie is issued when missing. Must run after
// OptionalAuth or AuthMiddleware.
func CartSession(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = ""
		}
		if sessionID != "" {
			c.Set(sessionIDKey, sessionID)
		}

		if auth := GetAuth(c); auth.Authenticated() {
			c.Set(cartOwnerKey, model.CartOwner{UserID: auth.UserID})
			c.Next()
			return
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sessionID, int(cfg.CookieMaxAge.Seconds()), "/", "", cfg.CookieSecure, true)
			c.Set(sessionIDKey, sessionID)
		}
		c.Set(cartOwnerKey, model.CartOwner{SessionID: sessionID})
		c.Next()
	}
}

func GetCartOwner(c *gin.Context) model.CartOwner {
	v, _ := c.Get(cartOwnerKey)
	owner, _ := v.(model.CartOwner)
	return owner
}

// GetSessionID returns the anonymous session id carried by the request, if
// any, even when the request is authenticated.
func GetSessionID(c *gin.Context) string {
	v, _ := c.Get(sessionIDKey)
	id, _ := v.(string)
	return id
}
