package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/snapgram/internal/auth"
	"github.com/iliyamo/snapgram/internal/config"
	"github.com/iliyamo/snapgram/internal/database"
	"github.com/iliyamo/snapgram/internal/handler"
	"github.com/iliyamo/snapgram/internal/mail"
	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/queue"
	"github.com/iliyamo/snapgram/internal/repository"
	"github.com/iliyamo/snapgram/internal/repository/mongorepo"
	"github.com/iliyamo/snapgram/internal/repository/sqlrepo"
	"github.com/iliyamo/snapgram/internal/router"
	"github.com/iliyamo/snapgram/internal/service"
	"github.com/iliyamo/snapgram/internal/telemetry"
)

func main() {
	e := echo.New()
	e.HideBanner = true
	if err := run(e); err != nil {
		e.Logger.Fatal(err)
	}
}

func run(e *echo.Echo) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Env != "prod" {
		e.Logger.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "snapgram", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		e.Logger.Info("redis disabled: revocation cache and rate limiting are off")
	}

	codec, err := auth.NewCodec(cfg.CodecConfig())
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	cost := cfg.BcryptCost
	if cfg.Env == "test" {
		cost = bcrypt.MinCost
	}
	registry := auth.NewRegistry(store.RevokedTokens(), rdb, cfg.Redis.CacheTTL, e.Logger)
	authn := auth.NewAuthenticator(codec, registry, store.Users())
	identity := service.NewIdentityService(store, auth.NewHasher(cost), codec, registry, authn, newMailer(cfg, e.Logger), e.Logger)
	graph := service.NewGraphService(store, e.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	router.RegisterRoutes(e, store)
	router.RegisterAuth(e, handler.NewAuthHandler(identity), authn, middleware.NewTokenBucket(cfg.RateLimit, rdb))
	router.RegisterSocial(e, router.SocialHandlers{
		Users:    handler.NewUserHandler(identity, graph),
		Posts:    handler.NewPostHandler(graph),
		Comments: handler.NewCommentHandler(graph),
		Likes:    handler.NewLikeHandler(graph),
	}, authn)

	addr := ":" + cfg.Port
	e.Logger.Infof("listening on %s (env=%s, db=%s, mail=%s)", addr, cfg.Env, cfg.DB.Driver, cfg.Mail.Transport)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	e.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured backend and brings its schema or
// indexes up to date.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.DB.Driver {
	case config.DriverMySQL:
		db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		if err := database.Migrate(ctx, db, database.DialectMySQL); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlrepo.New(db), nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.DB.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := database.Migrate(ctx, db, database.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlrepo.New(db), nil
	case config.DriverMongo:
		s, err := mongorepo.Connect(ctx, cfg.DB.MongoURL, cfg.DB.Name, cfg.DB.MongoTransactions)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.DB.Driver)
}

func newMailer(cfg config.Config, logger echo.Logger) mail.Sender {
	m := cfg.Mail
	switch m.Transport {
	case config.MailSMTP:
		return mail.NewSMTPSender(m.SMTPHost, m.SMTPPort, m.SMTPUser, m.SMTPPass, m.From, m.RootURL)
	case config.MailQueue:
		return queue.NewPublisher(cfg.RabbitMQURL)
	default:
		return mail.NewLogSender(logger, m.RootURL)
	}
}
