package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiftwise/shiftwise/internal/app"
	"github.com/shiftwise/shiftwise/internal/auth"
	"github.com/shiftwise/shiftwise/internal/platform/cache"
	"github.com/shiftwise/shiftwise/internal/platform/db"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/roles"
	"github.com/shiftwise/shiftwise/internal/token"
	"github.com/shiftwise/shiftwise/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenService := token.NewService(cfg.TokenConfig())

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)

	usersRepo := users.NewCachedRepository(users.NewRepository(dbpool), redisClient, cfg.PermissionCacheTTL, logger)
	usersService := users.NewService(usersRepo)

	authService := auth.NewService(usersService, tokenService)
	authMiddleware := auth.NewMiddleware(logger, usersService, tokenService)

	seeded, err := rolesService.SeedSystemRoles(ctx)
	if err != nil {
		logger.Error("seed system roles", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("system roles ready", slog.Int("count", len(seeded)))

	rbacMiddleware := rbac.Middleware{Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, authService, authMiddleware),
		AuthMiddleware:     authMiddleware,
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(rbacMiddleware),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
