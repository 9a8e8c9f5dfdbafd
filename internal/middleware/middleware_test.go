package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/config"
	"github.com/iliyamo/snapgram/internal/model"
)

type stubAuthn struct {
	users map[string]*model.User
	err   error
}

func (s stubAuthn) Authenticate(_ context.Context, raw string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[raw]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: bad signature", model.ErrInvalidToken)
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newProtected(authn Authenticator) *echo.Echo {
	e := echo.New()
	g := e.Group("", Authenticate(authn))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUserID(c)+"|"+CurrentUser(c).Email+"|"+CurrentToken(c))
	})
	g.PUT("/users/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireSelf("id"))
	return e
}

func TestAuthenticate(t *testing.T) {
	alice := &model.User{ID: "u1", Email: "alice@x.com"}
	e := newProtected(stubAuthn{users: map[string]*model.User{"good": alice}})

	rec := serve(e, http.MethodGet, "/me", "good")
	if rec.Code != http.StatusOK || rec.Body.String() != "u1|alice@x.com|good" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	for _, tok := range []string{"", "forged"} {
		rec := serve(e, http.MethodGet, "/me", tok)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", tok, rec.Code)
		}
		if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
			t.Fatalf("token %q: missing WWW-Authenticate header", tok)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("basic auth: expected 401, got %d", rec.Code)
	}
}

func TestAuthenticateStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: revoked", model.ErrInvalidToken), http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := newProtected(stubAuthn{err: tc.err})
		if rec := serve(e, http.MethodGet, "/me", "any"); rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestRequireSelf(t *testing.T) {
	alice := &model.User{ID: "u1", Email: "alice@x.com"}
	e := newProtected(stubAuthn{users: map[string]*model.User{"good": alice}})

	if rec := serve(e, http.MethodPut, "/users/u1", "good"); rec.Code != http.StatusNoContent {
		t.Fatalf("self: expected 204, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodPut, "/users/u2", "good"); rec.Code != http.StatusForbidden {
		t.Fatalf("other: expected 403, got %d", rec.Code)
	}
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1}
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil))
	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodGet, "/x", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.7",
		"ip_route": "rl:ip:10.0.0.7:route:POST /v1/auth/login",
		"user":     "rl:user:anon",
		"":         "rl:ip:10.0.0.7:user:anon:route:POST /v1/auth/login",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Fatalf("%q: got %q want %q", strategy, got, want)
		}
	}

	c.Set(userIDKey, "u1")
	if got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c); got != "rl:user:u1" {
		t.Fatalf("got %q", got)
	}
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]any{int64(0), int64(0), int64(1500)})
	if !ok || allowed || remaining != 0 || retry != 1500 {
		t.Fatalf("unexpected parse: %v %d %d %v", allowed, remaining, retry, ok)
	}
	if _, _, _, ok := parseBucketResult("nope"); ok {
		t.Fatal("expected malformed result to be rejected")
	}
}
