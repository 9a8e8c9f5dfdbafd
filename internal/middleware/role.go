package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSelf lets the request through only when the path parameter param
// names the authenticated user. It must run after Authenticate.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := CurrentUserID(c)
			if id == "" || c.Param(param) != id {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
