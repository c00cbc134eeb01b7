package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lexbrief/lexbrief/internal/pkg/jwt"
	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

const (
	ContextCallerIDKey = "caller_id"
	ContextSchemeKey   = "auth_scheme"
	ContextAPIKeyIDKey = "api_key_id"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// JWTAuth guards the dashboard endpoints with session bearer tokens.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "missing authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextCallerIDKey, claims.AccountID)
		c.Set(ContextSchemeKey, service.AuthSchemeSession)
		if claims.Email != "" {
			c.Set("caller_email", claims.Email)
		}
		c.Next()
	}
}

// APIKeyAuth guards the external analyze endpoint with bearer API keys.
// The two schemes never share an endpoint.
func APIKeyAuth(keys *service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "missing authorization")
			c.Abort()
			return
		}
		record, err := keys.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid_api_key", "invalid api key")
			c.Abort()
			return
		}
		c.Set(ContextCallerIDKey, record.CallerID)
		c.Set(ContextSchemeKey, service.AuthSchemeAPIKey)
		c.Set(ContextAPIKeyIDKey, record.ID)
		c.Next()
	}
}
