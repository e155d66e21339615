package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/diwise/jsonapi-entities/internal/pkg/infrastructure/cache/postgres"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const (
	appName string = "cache-cleaner"
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	maxAge, err := maxAge(ctx)
	if err != nil {
		log.Error("invalid max age", "err", err.Error())
		os.Exit(1)
	}

	log.Debug("begin clean cache", slog.Duration("max_age", maxAge))

	p, err := postgres.Connect(ctx, postgres.LoadConfiguration(ctx))
	if err != nil {
		log.Error("failed to connect to database", "err", err.Error())
		os.Exit(1)
	}

	c, err := postgres.New(ctx, p, 0)
	if err != nil {
		log.Error("failed to open cache", "err", err.Error())
		os.Exit(1)
	}
	defer c.Close()

	count, err := c.Purge(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		log.Error("failed to purge documents", "err", err.Error())
		os.Exit(1)
	}

	log.Debug("vacuum")

	err = c.Vacuum(ctx)
	if err != nil {
		log.Error("failed to vacuum table", "err", err.Error())
		os.Exit(1)
	}

	log.Info("done cleaning", slog.Int64("total", count))
}

func maxAge(ctx context.Context) (time.Duration, error) {
	return time.ParseDuration(env.GetVariableOrDefault(ctx, "CACHE_MAX_AGE", "24h"))
}
