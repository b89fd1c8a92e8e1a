package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/cache/memory"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/cache/redis"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/handler"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/peer"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository/postgres"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository/sqlite"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/service"
)

// openRepositories connects to the service's own database, migrates it
// when configured to, and returns the one repository the service owns.
func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, error) {
	repos := &repository.Repositories{}

	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path != sqlite.MemoryPath {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, err
		}
		repos.Database = db
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(cfg.Service); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		switch cfg.Service {
		case config.ServiceAuth:
			repos.Users = sqlite.NewUserRepository(db)
		case config.ServicePosts:
			repos.Posts = sqlite.NewPostRepository(db)
		case config.ServiceComments:
			repos.Comments = sqlite.NewCommentRepository(db)
		}

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		repos.Database = db
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(cfg.Service); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		switch cfg.Service {
		case config.ServiceAuth:
			repos.Users = postgres.NewUserRepository(db)
		case config.ServicePosts:
			repos.Posts = postgres.NewPostRepository(db)
		case config.ServiceComments:
			repos.Comments = postgres.NewCommentRepository(db)
		}

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return repos, nil
}

// openCache returns the backend the verification gateway keeps results in.
func (a *App) openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		c, err := redis.New(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		a.onClose(c.Close)
		return c, nil
	default:
		c := memory.NewCache(memory.DefaultCleanupInterval)
		a.onClose(c.Close)
		return c, nil
	}
}

// gateway builds the remote token verifier used by posts and comments.
func (a *App) gateway(ctx context.Context, cfg *config.Config, authClient *peer.AuthClient, deps handler.RouterDeps, logger zerolog.Logger) (auth.TokenVerifier, error) {
	if cfg.Gateway.VerifyCacheTTL <= 0 {
		return authClient, nil
	}
	cache, err := a.openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	keys := repository.CacheKey{Prefix: cfg.Cache.KeyPrefix + string(cfg.Service) + ":"}
	return auth.NewCachingVerifier(authClient, cache, keys, cfg.Gateway.VerifyCacheTTL, logger, deps.Metrics), nil
}

func peerOptions(cfg *config.Config, baseURL string, deps handler.RouterDeps, logger zerolog.Logger) peer.Options {
	return peer.Options{
		BaseURL:    baseURL,
		ServiceKey: cfg.Auth.InternalKey,
		Timeout:    cfg.Peers.Timeout,
		Logger:     logger,
		Metrics:    deps.Metrics,
	}
}

func buildAuth(cfg *config.Config, repos *repository.Repositories, deps handler.RouterDeps, logger zerolog.Logger) (http.Handler, error) {
	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	users := service.NewUserService(repos.Users, issuer, cfg.Auth.BcryptCost, logger)
	h := handler.NewAuthHandler(users, issuer, cfg.Server.MaxBodySize, logger)

	deps.Verifier = issuer
	return handler.NewAuthRouter(deps, h), nil
}

func (a *App) buildPosts(ctx context.Context, cfg *config.Config, repos *repository.Repositories, deps handler.RouterDeps, logger zerolog.Logger) (http.Handler, error) {
	authClient := peer.NewAuthClient(peerOptions(cfg, cfg.Peers.AuthURL, deps, logger))
	commentsClient := peer.NewCommentsClient(peerOptions(cfg, cfg.Peers.CommentsURL, deps, logger))

	verifier, err := a.gateway(ctx, cfg, authClient, deps, logger)
	if err != nil {
		return nil, err
	}

	posts := service.NewPostService(repos.Posts, authClient, commentsClient, recorder(deps), logger)
	h := handler.NewPostHandler(posts, cfg.Server.MaxBodySize, logger)

	deps.Verifier = verifier
	return handler.NewPostsRouter(deps, h), nil
}

func (a *App) buildComments(ctx context.Context, cfg *config.Config, repos *repository.Repositories, deps handler.RouterDeps, logger zerolog.Logger) (http.Handler, error) {
	authClient := peer.NewAuthClient(peerOptions(cfg, cfg.Peers.AuthURL, deps, logger))
	postsClient := peer.NewPostsClient(peerOptions(cfg, cfg.Peers.PostsURL, deps, logger))

	verifier, err := a.gateway(ctx, cfg, authClient, deps, logger)
	if err != nil {
		return nil, err
	}

	comments := service.NewCommentService(repos.Comments, postsClient, authClient, recorder(deps), logger)
	h := handler.NewCommentHandler(comments, cfg.Server.MaxBodySize, logger)

	deps.Verifier = verifier
	return handler.NewCommentsRouter(deps, h), nil
}

// recorder is nil when metrics are disabled.
func recorder(deps handler.RouterDeps) service.Recorder {
	if deps.Metrics == nil {
		return nil
	}
	return deps.Metrics
}
