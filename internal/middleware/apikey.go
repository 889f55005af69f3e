package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// ContextKeyGrant is the Gin context key for the verified API key grant.
const ContextKeyGrant = "api_key_grant"

// RequireAPIKey verifies the caller's key and daily quota before the handler
// runs. Successful calls are metered afterwards without delaying the response.
func RequireAPIKey(keys *service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if raw == "" {
			raw = bearerToken(c)
		}
		if raw == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAPIKeyRequired)
			return
		}

		grant, err := keys.Verify(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, service.ErrAPIKeyInvalid) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrAPIKeyInvalid)
				return
			}
			response.AbortFail(c, http.StatusServiceUnavailable, response.ErrUpstreamUnavailable)
			return
		}

		if err := keys.CheckQuota(c.Request.Context(), grant); err != nil {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrQuotaExceeded)
			return
		}

		c.Set(ContextKeyGrant, grant)
		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			keys.RecordUsage(grant, c.FullPath())
		}
	}
}

// GetGrant retrieves the verified API key grant from the Gin context.
func GetGrant(c *gin.Context) *model.KeyGrant {
	val, exists := c.Get(ContextKeyGrant)
	if !exists {
		return nil
	}
	grant, _ := val.(*model.KeyGrant)
	return grant
}
