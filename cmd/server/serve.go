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

	"github.com/spf13/cobra"

	pkgdb "github.com/Skotchmaster/book_api/pkg/db"

	"github.com/Skotchmaster/book_api/internal/es"
	"github.com/Skotchmaster/book_api/internal/hash"
	"github.com/Skotchmaster/book_api/internal/httpserver"
	"github.com/Skotchmaster/book_api/internal/metrics"
	authmw "github.com/Skotchmaster/book_api/internal/middleware/auth"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
	"github.com/Skotchmaster/book_api/internal/revocation"
	"github.com/Skotchmaster/book_api/internal/service"
	"github.com/Skotchmaster/book_api/internal/tokens"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger.Info("config loaded", "config", cfg.String())

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(dialCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer pkgdb.Close(db)

	rdb, err := revocation.Dial(dialCtx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	store := revocation.NewRedisStore(rdb, cfg.StorageTimeout)

	codec, err := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.JWTAlgorithm, cfg.ClockSkew)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		prod, err := mykafka.NewProducer(brokers)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		events = prod
		logger.Info("kafka producer enabled", "brokers", brokers)
	}
	defer events.Close()

	rp := repo.New(db)
	books := &service.BookService{Repo: rp, Events: events}
	if cfg.ESURL != "" {
		index, err := es.NewClient(dialCtx, es.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("search index unavailable, using database search", "error", err)
		} else {
			books.Index = index
		}
	}

	hasher := hash.New(cfg.BcryptCost)
	m := metrics.New(cfg.ServiceName)

	authSvc := &service.AuthService{
		Repo:    rp,
		Hasher:  hasher,
		Codec:   codec,
		Revoked: store,
		Events:  events,
		Tokens: service.TokenConfig{
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
			ClockSkew:  cfg.ClockSkew,
		},
	}
	users := &service.UserService{Repo: rp, Hasher: hasher, Events: events, Index: books.Index}

	e := httpserver.NewEcho(logger, m)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHTTP{Svc: authSvc, Metrics: m},
		UserHandler:   &httpserver.UserHTTP{Svc: users},
		AdminHandler:  &httpserver.AdminHTTP{Users: users},
		BookHandler:   &httpserver.BookHTTP{Svc: books},
		ReviewHandler: &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: rp}},
		HealthHandler: &httpserver.HealthHTTP{DB: db, Revoked: store},
		Auth:          authmw.New(&service.Guard{Repo: rp, Codec: codec, Revoked: store}),
		Metrics:       m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
