package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comments-console/internal/platform/auth"
	"github.com/example/comments-console/internal/platform/config"
	"github.com/example/comments-console/internal/platform/db"
	"github.com/example/comments-console/internal/platform/events"
	"github.com/example/comments-console/internal/platform/httpserver"
	"github.com/example/comments-console/internal/platform/logging"
	"github.com/example/comments-console/internal/platform/natsconn"
	"github.com/example/comments-console/internal/platform/run"
	"github.com/example/comments-console/services/moderation/internal/cache"
	modconfig "github.com/example/comments-console/services/moderation/internal/config"
	"github.com/example/comments-console/services/moderation/internal/handlers"
	"github.com/example/comments-console/services/moderation/internal/netcheck"
	"github.com/example/comments-console/services/moderation/internal/remote"
	"github.com/example/comments-console/services/moderation/internal/session"
	"github.com/example/comments-console/services/moderation/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	modCfg, err := modconfig.Load()
	if err != nil {
		log.Error("moderation config", zap.Error(err))
		run.Exit(1)
	}

	store, closePool := initCache(cfg, log)
	if closePool != nil {
		defer closePool()
	}

	publisher, closeNATS := initPublisher(log)
	if closeNATS != nil {
		defer closeNATS()
	}

	manager := session.NewManager(session.Options{
		Cache:     store,
		Remote:    remote.New(modCfg.RemoteBaseURL, modCfg.RemoteUsername, modCfg.RemoteAppPassword),
		Net:       netcheck.NewHTTP(modCfg.RemoteBaseURL),
		Log:       log,
		Publisher: publisher,
		Confirmer: session.ConfirmFunc(func(ctx context.Context, count int) (bool, error) {
			// The HTTP surface carries the confirmation as an explicit
			// request field; by the time Moderate runs it is settled.
			return true, nil
		}),
		AutoSync: modCfg.AutoSync,
	})
	defer manager.CloseAll()

	tokenSvc := tokens.Service{Secret: modCfg.JWTSecret, AccessTokenTTL: modCfg.AccessTokenTTL}
	verifier := auth.JWTVerifier{Secret: modCfg.JWTSecret}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	r.Post("/v1/login", handlers.Login(tokenSvc, modCfg.OperatorUser, modCfg.OperatorPasswordHash))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOperator(verifier))
		r.Get("/v1/sites/{site_id}/comments", handlers.ListComments(manager))
		r.Get("/v1/sites/{site_id}/comments/{comment_id}", handlers.GetComment(manager))
		r.Get("/v1/sites/{site_id}/state", handlers.GetState(manager))
		r.Post("/v1/sites/{site_id}/sync", handlers.RequestSync(manager))
		r.Post("/v1/sites/{site_id}/selection", handlers.StartSelection(manager))
		r.Delete("/v1/sites/{site_id}/selection", handlers.EndSelection(manager))
		r.Put("/v1/sites/{site_id}/selection/{comment_id}", handlers.SetSelected(manager))
		r.Post("/v1/sites/{site_id}/moderate", handlers.Moderate(manager))
		r.Delete("/v1/sites/{site_id}", handlers.CloseScope(manager))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initCache selects the comment cache backend. In production
// (APP_ENV=production) it requires a working Postgres connection and
// terminates the process otherwise.
func initCache(cfg config.AppConfig, log *zap.Logger) (cache.Cache, func()) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory comment cache (development only)")
		return cache.NewMemory(), nil
	}

	pool, err := db.Open(context.Background(), dsn)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory comment cache", zap.Error(err))
		return cache.NewMemory(), nil
	}

	log.Info("comment cache: postgres")
	return cache.NewPostgres(pool), pool.Close
}

// initPublisher connects to NATS for the change-event bridge. NATS is
// optional; without it the console still works, just without external
// notifications.
func initPublisher(log *zap.Logger) (*events.Publisher, func()) {
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats unavailable, change events disabled", zap.Error(err))
		return nil, nil
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		log.Warn("jetstream unavailable, change events disabled", zap.Error(err))
		nc.Close()
		return nil, nil
	}
	return events.New(js, log), nc.Close
}
