package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

const authKey = "auth"

var errNoToken = errors.New("no bearer token")

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(authKey, auth)
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is sent and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := parseBearer(c.GetHeader("Authorization"), secret)
		switch {
		case errors.Is(err, errNoToken):
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		default:
			c.Set(authKey, auth)
		}
		c.Next()
	}
}

func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAuth(c).IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

func parseBearer(header, secret string) (model.AuthContext, error) {
	if header == "" {
		return model.AuthContext{}, errNoToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return model.AuthContext{}, errors.New("malformed authorization header")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return model.AuthContext{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.AuthContext{}, errors.New("invalid claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return model.AuthContext{}, errors.New("invalid user id")
	}
	isStaff, _ := claims["is_staff"].(bool)
	return model.AuthContext{UserID: userID, IsStaff: isStaff}, nil
}

// GetAuth returns the caller identity, or the zero value for anonymous
// requests.
func GetAuth(c *gin.Context) model.AuthContext {
	v, _ := c.Get(authKey)
	auth, _ := v.(model.AuthContext)
	return auth
}

func GetUserID(c *gin.Context) uuid.UUID {
	return GetAuth(c).UserID
}
