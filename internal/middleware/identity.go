package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/model"
)

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// CurrentUserID returns the authenticated user's id, or "" for anonymous
// requests.
func CurrentUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// CurrentToken returns the raw access token the request was authenticated
// with.
func CurrentToken(c echo.Context) string {
	t, _ := c.Get(tokenKey).(string)
	return t
}
