package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"reelmates/internal/auth"
	"reelmates/internal/cache"
	"reelmates/internal/catalog"
	"reelmates/internal/config"
	"reelmates/internal/httpapi"
	"reelmates/internal/service"
	"reelmates/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc     *service.AuthService
		friendsSvc  *service.FriendsService
		usersSvc    *service.UsersService
		profileSvc  *service.ProfileService
		listsSvc    *service.ListsService
		activitySvc *service.ActivityService
		railsSvc    *service.RailsService
		dbPing      func(context.Context) error
		redisPing   func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		dbPing = pgPool.Ping

		var snapshotCache *cache.Cache
		rdb, err := cache.Open(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The snapshot and rails caches are an optimisation; the
			// server stays up without them.
			logger.Warn("redis unavailable, caching disabled", "err", err)
		} else {
			defer rdb.Close()
			snapshotCache = cache.New(rdb)
			redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		requests := postgres.NewFriendRequestsStore(pgPool)

		catalogClient := catalog.NewClient(cfg.MoviesAPIURL, cfg.PeopleAPIURL, nil)
		resolver := &service.ResolverService{
			Catalog:   catalogClient,
			PersonCap: cfg.PersonLookupCap,
			Log:       logger,
		}

		authSvc = &service.AuthService{
			Users:      users,
			Sessions:   sessions,
			SessionTTL: cfg.SessionTTL,
		}
		friendsSvc = &service.FriendsService{
			Users:    users,
			Requests: requests,
			Log:      logger,
		}
		usersSvc = &service.UsersService{Store: users}
		profileSvc = &service.ProfileService{
			Store: users,
			Log:   logger,
		}
		listsSvc = &service.ListsService{
			Store: users,
			Log:   logger,
		}
		activitySvc = &service.ActivityService{
			Profiles: users,
			Friends:  requests,
			CacheTTL: cfg.SnapshotTTL,
			Log:      logger,
		}
		railsSvc = &service.RailsService{
			Catalog:  catalogClient,
			Activity: activitySvc,
			Movies:   resolver,
			People:   resolver,
			Profiles: users,
			CacheTTL: cfg.RailsTTL,
			Year:     cfg.RecommendationYear,
			Limit:    cfg.RailLimit,
			Log:      logger,
		}

		if snapshotCache != nil {
			friendsSvc.Cache = snapshotCache
			profileSvc.Cache = snapshotCache
			listsSvc.Cache = snapshotCache
			activitySvc.Cache = snapshotCache
			railsSvc.Cache = snapshotCache
		}
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       dbPing,
		RedisPing:    redisPing,
		Auth:         authSvc,
		Friends:      friendsSvc,
		Users:        usersSvc,
		Profile:      profileSvc,
		Lists:        listsSvc,
		Activity:     activitySvc,
		Rails:        railsSvc,
		ImportToken:  cfg.ImportToken,
		CookieCodec:  auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
