package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/jsonapi-entities/internal/pkg/application/hydrator"
	"github.com/diwise/jsonapi-entities/internal/pkg/infrastructure/router"
	"github.com/diwise/jsonapi-entities/internal/pkg/presentation/api"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const serviceName string = "jsonapi-hydrator"

func DefaultFlags() FlagMap {
	return FlagMap{
		listenAddress: "",
		servicePort:   "8080",

		configPath: "/opt/diwise/config/hydrator.yaml",
		opaPath:    "/opt/diwise/config/authz.rego",

		logFormat: "json",
	}
}

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, flags := parseExternalConfig(context.Background(), DefaultFlags())

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion, flags[logFormat])
	defer cleanup()

	appConfig, err := openConfigFiles(flags)
	if err != nil {
		logger.Error("failed to open configuration files", "err", err.Error())
		os.Exit(1)
	}

	handler, closeApp, err := initialize(ctx, flags, appConfig)
	if err != nil {
		logger.Error("failed to initialize service", "err", err.Error())
		os.Exit(1)
	}
	defer closeApp()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(flags[listenAddress], flags[servicePort]),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("starting to listen for connections", "addr", srv.Addr)

		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to listen for connections", "err", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error("failed to shut down gracefully", "err", err.Error())
	}
}

func initialize(ctx context.Context, flags FlagMap, appConfig *AppConfig) (http.Handler, func(), error) {
	defer appConfig.hydratorConfig.Close()
	defer appConfig.opaConfig.Close()

	cfg, err := hydrator.LoadConfiguration(appConfig.hydratorConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags[debugClient] == "true" {
		for i := range cfg.Tenants {
			for j := range cfg.Tenants[i].Sources {
				cfg.Tenants[i].Sources[j].Debug = true
			}
		}
	}

	c, err := hydrator.NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cache: %w", err)
	}

	app, err := hydrator.New(ctx, *cfg, c)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	r := router.New(serviceName)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	err = api.RegisterHandlers(ctx, r, appConfig.opaConfig, app)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	closeApp := func() {
		if err := c.Close(); err != nil {
			logging.GetFromContext(ctx).Error("failed to close cache", "err", err.Error())
		}
	}

	return r, closeApp, nil
}

func openConfigFiles(flags FlagMap) (*AppConfig, error) {
	hydratorConfig, err := os.Open(flags[configPath])
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file %s: %w", flags[configPath], err)
	}

	opaConfig, err := os.Open(flags[opaPath])
	if err != nil {
		hydratorConfig.Close()
		return nil, fmt.Errorf("failed to open authz policies %s: %w", flags[opaPath], err)
	}

	return &AppConfig{
		hydratorConfig: hydratorConfig,
		opaConfig:      opaConfig,
	}, nil
}

func parseExternalConfig(ctx context.Context, flags FlagMap) (context.Context, FlagMap) {

	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault
	flags[servicePort] = envOrDef(ctx, "SERVICE_PORT", flags[servicePort])
	flags[configPath] = envOrDef(ctx, "HYDRATOR_CONFIG_PATH", flags[configPath])
	flags[opaPath] = envOrDef(ctx, "POLICY_PATH", flags[opaPath])
	flags[debugClient] = envOrDef(ctx, "DEBUG_CLIENT", "false")

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "configuration file", apply(configPath))
	flag.Func("policies", "an authorization policy file", apply(opaPath))
	flag.Func("port", "the port to listen for requests on", apply(servicePort))
	flag.Func("logformat", "json or text", apply(logFormat))
	flag.Parse()

	return ctx, flags
}
