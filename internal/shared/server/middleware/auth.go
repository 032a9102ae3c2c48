package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"note-backend/internal/shared/auth"
	"note-backend/internal/shared/server/respond"
)

const (
	memberIDKey    = "memberId"
	memberEmailKey = "memberEmail"
	memberNameKey  = "memberName"
)

// Auth validates JWTs or guest headers and stores identity in context.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if path == "/api/v1/health" || path == "/api/v1/metrics" || strings.HasPrefix(path, "/api/v1/auth/google/") {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(memberIDKey, claims.Sub)
			if claims.Email != "" {
				c.Set(memberEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(memberNameKey, claims.Name)
			}
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(memberIDKey, "guest:"+guestID)
		c.Next()
	}
}

// MemberIDFromContext fetches the member ID set by the auth middleware.
func MemberIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(memberIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// MemberEmailFromContext fetches the member email set by the auth middleware.
func MemberEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(memberEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// MemberNameFromContext fetches the member name set by the auth middleware.
func MemberNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(memberNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
