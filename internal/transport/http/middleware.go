package http

import (
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsewire-server/internal/auth"
)

const (
	// ContextKeyIdentity is the gin context key for the authenticated identity.
	ContextKeyIdentity = "identity"
)

// RequireAuth validates bearer tokens on REST endpoints. Unlike the /ws
// guest fallback, a missing or invalid token here is a hard 401.
func RequireAuth(cfg *auth.JWTConfig, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			logger.Debug().Msg("missing authorization token")
			c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "missing authorization token"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(cfg, token)
		if err != nil {
			logger.Debug().Err(err).Msg("token validation failed")
			c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyIdentity, claims.Identity)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header or, for
// websocket clients that cannot set headers, the token query parameter.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}
