// Command tunebase runs the tunebase API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"tunebase/internal/auth"
	"tunebase/internal/cache"
	"tunebase/internal/config"
	"tunebase/internal/db"
	"tunebase/internal/spotify"
	"tunebase/internal/web"
)

const spotifyRequestsPerSecond = 10

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg.ConfigureLogger()

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	tokenCache, err := newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}

	tokenProvider := spotify.NewTokenProvider(spotify.Credentials{
		TokenURL:     cfg.SpotifyTokenURL,
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
	}, tokenCache)

	catalog := spotify.NewClient(tokenCache, spotify.WithRateLimit(spotifyRequestsPerSecond))

	authService := auth.NewService(
		database.Users(),
		database.Tokens(),
		time.Duration(cfg.APITokenTTLHours)*time.Hour,
	)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runTokenJanitor(janitorCtx, database.Tokens())

	handlers := web.NewHandlers(authService, tokenProvider, catalog)
	server := web.NewServer(":"+cfg.Port, handlers)

	return server.Run()
}

// runTokenJanitor periodically removes expired personal access tokens.
func runTokenJanitor(ctx context.Context, tokens *db.TokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := tokens.DeleteExpired(ctx)
			if err != nil {
				logrus.WithError(err).Warn("Deleting expired API tokens")
				continue
			}
			if deleted > 0 {
				logrus.WithField("count", deleted).Info("Deleted expired API tokens")
			}
		}
	}
}

// newCache selects the Redis cache backend when REDIS_URL is set, the
// in-memory backend otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		logrus.Info("Using in-memory token cache")
		return cache.NewMemoryCache(), nil
	}

	logrus.Info("Using Redis token cache")
	return cache.NewRedisCache(ctx, cfg.RedisURL)
}
