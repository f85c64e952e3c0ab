// @title Recipe API
// @version 1.0
// @description Recipe publishing backend: accounts, categories and recipes with images.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/recipebox/backend/internal/auth"
	"github.com/recipebox/backend/internal/config"
	"github.com/recipebox/backend/internal/db"
	"github.com/recipebox/backend/internal/handler"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/ratelimit"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/storage"
	"github.com/recipebox/backend/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "", "error").Error(context.Background(), "failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Server.Env, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := db.NewPostgres(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	uploadDir := ""
	if local, ok := blobs.(*storage.Local); ok {
		uploadDir = local.BasePath()
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.JWTRefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return err
	}

	limiter, err := newLimiter(ctx, cfg.RateLimit, log)
	if err != nil {
		return err
	}

	images := upload.NewReconciler(cfg.Storage.PublicURL)
	authService := service.NewAuthService(store, auth.NewBcryptHasher(auth.DefaultBcryptCost), tokens, log)
	categoryService := service.NewCategoryService(store, images, log)
	recipeService := service.NewRecipeService(store, store, store, images, log)

	if cfg.Auth.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
			return err
		}
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Categories:     categoryService,
		Recipes:        recipeService,
		Uploads:        upload.NewCollector(blobs, cfg.Storage.MaxFileSize),
		Images:         images,
		Cookie:         handler.NewCookieConfig(cfg.Auth),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadDir:      uploadDir,
		Limiter:        limiter,
		DB:             pool,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "addr", srv.Addr, "env", cfg.Server.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLimiter picks the Redis counter store when REDIS_URL is set and the
// in-process one otherwise. The in-process store is swept until ctx ends.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig, log logging.Logger) (*ratelimit.Limiter, error) {
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = client.Close()
		}()
		log.Info(ctx, "rate limit store", "driver", "redis")
		return ratelimit.NewLimiter(ratelimit.NewRedisStore(client, ""), cfg.Max, cfg.Window), nil
	}

	mem := ratelimit.NewMemoryStore()
	go mem.Run(ctx, cfg.Window)
	log.Info(ctx, "rate limit store", "driver", "memory")
	return ratelimit.NewLimiter(mem, cfg.Max, cfg.Window), nil
}
