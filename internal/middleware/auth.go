// Package middleware holds the echo middleware shared by the route groups:
// bearer authentication, ownership guards and rate limiting.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/model"
)

// Context keys populated by Authenticate.
const (
	userKey   = "user"
	userIDKey = "user_id"
	tokenKey  = "token"
)

// Authenticator resolves a raw bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
}

// Authenticate requires a valid access token in the Authorization header.
// The resolved user, its id and the raw token are stored in the echo
// context. A token whose user no longer exists is answered with 404, like
// any other lookup of a missing user.
func Authenticate(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c, "not authenticated")
			}
			u, err := authn.Authenticate(c.Request().Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, model.ErrUserNotFound):
				return c.JSON(http.StatusNotFound, echo.Map{"error": model.ErrUserNotFound.Error()})
			case errors.Is(err, model.ErrUnauthorized):
				return unauthorized(c, model.ErrInvalidToken.Error())
			default:
				c.Logger().Errorf("authenticate: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			c.Set(userKey, u)
			c.Set(userIDKey, u.ID)
			c.Set(tokenKey, raw)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, raw, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
