// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/handler"
	"github.com/iliyamo/snapgram/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes. /healthz answers as
// long as the process runs; /readyz also pings the store.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))
}

// RegisterAuth registers the session endpoints. Operations that do not need
// an existing session live under /v1/auth behind the rate limiter; /me and
// /logout need a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn middleware.Authenticator, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")

	public := g.Group("", limiter)
	public.POST("/register", a.Register)
	public.POST("/login", a.Login)
	public.POST("/refresh", a.Refresh)
	public.POST("/password-reset", a.RequestPasswordReset)
	public.POST("/password-reset/confirm", a.ConfirmPasswordReset)

	session := g.Group("", middleware.Authenticate(authn))
	session.GET("/me", a.Me)
	session.POST("/logout", a.Logout)
}
