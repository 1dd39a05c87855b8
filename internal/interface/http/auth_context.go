package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/news-reducer/internal/domain/auth"
)

const (
	authClaimsKey = "auth_claims"
	requestIDKey  = "request_id"
)

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
