package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vidfriends/feedclient/internal/api"
	"github.com/vidfriends/feedclient/internal/auth"
	"github.com/vidfriends/feedclient/internal/config"
	"github.com/vidfriends/feedclient/internal/db"
	"github.com/vidfriends/feedclient/internal/feed"
	"github.com/vidfriends/feedclient/internal/metrics"
	"github.com/vidfriends/feedclient/internal/middleware"
	"github.com/vidfriends/feedclient/internal/preview"
	"github.com/vidfriends/feedclient/internal/session"
	"github.com/vidfriends/feedclient/internal/upload"
	"github.com/vidfriends/feedclient/internal/videos"
)

type dependencies struct {
	metrics  *metrics.Metrics
	http     *http.Client
	api      *api.Client
	store    *session.Store
	previews preview.Store
	keyboard *feed.Dispatcher
	client   *Client
}

// buildDependencies wires concrete implementations from cfg. The returned
// cleanup closes whatever connections were opened.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (dependencies, func(), error) {
	m := metrics.New()
	transport := middleware.Chain(http.DefaultTransport,
		middleware.RequestLogger(logger),
		middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
	)

	apiClient, err := api.NewClient(cfg.APIURL, api.Options{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		Metrics:   m,
	})
	if err != nil {
		return dependencies{}, nil, err
	}

	backend, closeBackend, err := buildSessionBackend(ctx, cfg.Session)
	if err != nil {
		return dependencies{}, nil, err
	}

	previews, err := buildPreviewStore(ctx, cfg.Preview)
	if err != nil {
		closeBackend()
		return dependencies{}, nil, err
	}

	store := session.NewStore(backend)
	keyboard := feed.NewDispatcher()
	feedCtrl := feed.NewController(m)
	authCtrl := auth.NewController(apiClient, store, m)

	client := NewClient(ClientDeps{
		Auth:     authCtrl,
		Videos:   videos.NewRepository(apiClient),
		Feed:     feedCtrl,
		Keyboard: keyboard,
		NewUpload: func(onSuccess func(ctx context.Context)) *upload.Controller {
			return upload.NewController(apiClient, upload.Config{
				Tick:       cfg.Upload.Tick,
				CloseDelay: cfg.Upload.CloseDelay,
				MaxBytes:   cfg.Upload.MaxBytes,
				Genre:      cfg.Upload.Genre,
			}, upload.Options{
				Previews:  previews,
				Metrics:   m,
				OnSuccess: onSuccess,
			})
		},
	})

	return dependencies{
		metrics:  m,
		http:     &http.Client{Transport: transport, Timeout: cfg.RequestTimeout},
		api:      apiClient,
		store:    store,
		previews: previews,
		keyboard: keyboard,
		client:   client,
	}, closeBackend, nil
}

func buildSessionBackend(ctx context.Context, cfg config.SessionConfig) (session.Backend, func(), error) {
	var (
		backend session.Backend
		cleanup = func() {}
	)

	switch cfg.Backend {
	case config.SessionBackendMemory:
		backend = session.NewMemoryBackend()
	case config.SessionBackendFile, "":
		backend = session.NewFileBackend(cfg.File)
	case config.SessionBackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := session.NewPostgresBackend(pool, cfg.Profile)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		backend = pg
		cleanup = pool.Close
	case config.SessionBackendRedis:
		rb, err := session.NewRedisBackend(ctx, cfg.RedisURL, cfg.Profile)
		if err != nil {
			return nil, nil, err
		}
		backend = rb
		cleanup = func() { _ = rb.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	if cfg.Passphrase != "" {
		sealed, err := session.NewSealedBackend(backend, cfg.Passphrase)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		backend = sealed
	}
	return backend, cleanup, nil
}

func buildPreviewStore(ctx context.Context, cfg config.PreviewConfig) (preview.Store, error) {
	switch cfg.Backend {
	case config.PreviewBackendS3:
		return preview.NewS3Store(ctx, cfg.ObjectStore, cfg.Bytes)
	case config.PreviewBackendTemp, "":
		return preview.NewTempStore(cfg.Dir, cfg.Bytes), nil
	default:
		return nil, fmt.Errorf("unknown preview backend %q", cfg.Backend)
	}
}
