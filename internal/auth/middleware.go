package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apperrors "opensails/internal/errors"
)

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

// ClaimsFromContext returns the claims of the authenticated request.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}

// RejectRevoked refuses access tokens revoked by logout. It must run after
// the echo-jwt middleware.
func RejectRevoked(store TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrUnauthorized.Error(),
					Code:  "UNAUTHORIZED",
				})
			}
			if claims.ID != "" {
				revoked, _ := store.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if revoked {
					return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
						Error: "token has been revoked",
						Code:  "TOKEN_REVOKED",
					})
				}
			}
			return next(c)
		}
	}
}
