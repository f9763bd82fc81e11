package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/auth"
)

const sessionContextKey = "storefront.session"

// RequireAuth verifies the bearer token and hangs the session on the
// request context. 401 with the authentication-failure kind when the
// token is missing or bad.
func RequireAuth(mgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := parseSession(mgr, c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error_kind": KindAuthenticationRequired, "error": "missing or invalid token"})
			return
		}
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and
// lets the request through either way. Used by the event stream,
// which serves stock updates to anonymous storefront visitors too.
func OptionalAuth(mgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, ok := parseSession(mgr, c); ok {
			c.Set(sessionContextKey, session)
		}
		c.Next()
	}
}

// RequireStaff gates staff-only routes. Runs after RequireAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFrom(c)
		if session == nil || !session.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				gin.H{"error_kind": KindAuthenticationRequired, "error": "staff access required"})
			return
		}
		c.Next()
	}
}

// parseSession reads the Authorization header, falling back to a
// token query parameter because EventSource cannot set headers.
func parseSession(mgr *auth.Manager, c *gin.Context) (*auth.Session, bool) {
	token := ""
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, false
		}
		token = parts[1]
	} else {
		token = c.Query("token")
	}
	if token == "" {
		return nil, false
	}

	session, err := mgr.Parse(token)
	if err != nil {
		return nil, false
	}
	return session, true
}

func sessionFrom(c *gin.Context) *auth.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, ok := value.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}
