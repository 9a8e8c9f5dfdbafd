package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/snapgram/internal/auth"
	"github.com/iliyamo/snapgram/internal/database"
	"github.com/iliyamo/snapgram/internal/repository"
	"github.com/iliyamo/snapgram/internal/repository/sqlrepo"
)

// outbox records reset mails instead of sending them.
type outbox struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (o *outbox) SendPasswordReset(_ context.Context, email, token string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	if o.tokens == nil {
		o.tokens = map[string]string{}
	}
	o.tokens[email] = token
	return nil
}

func (o *outbox) token(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tokens[email]
}

type env struct {
	store    repository.Store
	codec    *auth.Codec
	authn    *auth.Authenticator
	identity *IdentityService
	graph    *GraphService
	mail     *outbox
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func openStore(t *testing.T) *sqlrepo.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(context.Background(), db, database.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := sqlrepo.New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, openStore(t))
}

func newEnvWithStore(t *testing.T, store repository.Store) *env {
	t.Helper()
	codec, err := auth.NewCodec(auth.CodecConfig{
		Algorithm:     "HS256",
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	logger := quietLogger()
	reg := auth.NewRegistry(store.RevokedTokens(), nil, time.Hour, logger)
	authn := auth.NewAuthenticator(codec, reg, store.Users())
	box := &outbox{}
	return &env{
		store:    store,
		codec:    codec,
		authn:    authn,
		identity: NewIdentityService(store, auth.NewHasher(bcrypt.MinCost), codec, reg, authn, box, logger),
		graph:    NewGraphService(store, logger),
		mail:     box,
	}
}

func (e *env) register(t *testing.T, email, username, password string) (string, auth.TokenPair) {
	t.Helper()
	u, pair, err := e.identity.Register(context.Background(), RegisterInput{Email: email, Username: username, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u.ID, pair
}
