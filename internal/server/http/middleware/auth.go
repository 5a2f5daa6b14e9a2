package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// OperatorAuthenticator verifies back-office bearer keys.
type OperatorAuthenticator interface {
	Authenticate(key string) error
}

// OperatorRequired admits only requests carrying a valid operator key.
func OperatorRequired(auth OperatorAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err := auth.Authenticate(key); err != nil {
			switch {
			case errors.Is(err, pkgAuth.ErrInvalidOperatorKey):
				c.AbortWithStatus(http.StatusUnauthorized)
			case errors.Is(err, pkgAuth.ErrOperatorDisabled):
				c.AbortWithStatus(http.StatusNotFound)
			default:
				c.AbortWithStatus(http.StatusInternalServerError)
			}
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
