package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/news-reducer/internal/domain/auth"
	apperrors "github.com/yanqian/news-reducer/pkg/errors"
)

// authMiddleware requires a valid API token on every request of the group.
func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, httpErr := bearerToken(c.GetHeader("Authorization"))
		if httpErr != nil {
			abortWithError(c, httpErr)
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if apperrors.IsCode(err, "invalid_token") {
				abortWithError(c, NewHTTPError(http.StatusForbidden, "invalid_token", errMessage(err), err))
				return
			}
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", "token verification failed", err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, *HTTPError) {
	if strings.TrimSpace(header) == "" {
		return "", NewHTTPError(http.StatusUnauthorized, "invalid_token", "missing authorization header", nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", NewHTTPError(http.StatusUnauthorized, "invalid_token", "authorization header must be a bearer token", nil)
	}
	return strings.TrimSpace(token), nil
}
