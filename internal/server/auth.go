package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
)

const (
	contextUserIDKey = "user_id"
	contextEmailKey  = "user_email"
)

// AuthRequired resolves the bearer token to an identity and mirrors it into
// the local users table, so every downstream handler can assume the user row
// exists.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if _, err := s.usersvc.EnsureUser(c.Request.Context(), userdomain.User{
			ID:    identity.UserID,
			Email: identity.Email,
		}); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, identity.UserID)
		c.Set(contextEmailKey, identity.Email)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

func currentEmail(c *gin.Context) string {
	return c.GetString(contextEmailKey)
}
