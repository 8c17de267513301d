package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyParam is the query parameter carrying the shared secret.
const APIKeyParam = "api_key"

// KeyMatcher checks a presented API key.
type KeyMatcher interface {
	Matches(candidate string) bool
}

// RequireAPIKey rejects requests whose api_key query parameter is missing or
// wrong with 401, before any later handler runs. onReject, when set, is
// called for every rejection.
func RequireAPIKey(keys KeyMatcher, onReject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !keys.Matches(c.Query(APIKeyParam)) {
			if onReject != nil {
				onReject(c)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
