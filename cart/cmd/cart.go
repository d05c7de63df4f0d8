package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/shopeasy/cart/internal/controller"
	"github.com/Alturino/shopeasy/cart/internal/otel"
	"github.com/Alturino/shopeasy/cart/internal/service"
	"github.com/Alturino/shopeasy/internal/config"
	"github.com/Alturino/shopeasy/internal/constants"
	"github.com/Alturino/shopeasy/internal/infra"
	"github.com/Alturino/shopeasy/internal/log"
	"github.com/Alturino/shopeasy/internal/middleware"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/internal/validate"
	productCmd "github.com/Alturino/shopeasy/product/cmd"
	userCmd "github.com/Alturino/shopeasy/user/cmd"
)

const shutdownTimeout = 10 * time.Second

// RunCartService serves the cart, product and auth APIs from one process
// until c is cancelled.
func RunCartService(c context.Context, cfg *config.Config) error {
	c, span := otel.Tracer.Start(c, "RunCartService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCartService).
		Str(log.KeyTag, "main RunCartService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := inOtel.InitOtelSdk(c, constants.AppCartService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
		defer cancel()
		if err := inOtel.ShutdownOtel(shutdownCtx, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	var cache *redis.Client
	if cfg.Cache.Enabled || cfg.Credential.Driver == config.CredentialDriverRedis {
		logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
		logger.Info().Msg("initializing cache")
		c = logger.WithContext(c)
		cache, err = infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			err = fmt.Errorf("failed initializing cache with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		defer func() {
			logger.Info().Msg("shutting down cache")
			if err := cache.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		}()
		logger.Info().Msg("initialized cache")
	}

	logger = logger.With().Str(log.KeyProcess, "initializing metrics registry").Logger()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	logger.Info().Msg("initialized metrics registry")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	c = logger.WithContext(c)
	productCache := cache
	if !cfg.Cache.Enabled {
		productCache = nil
	}
	catalog := productCmd.NewCatalog(c, cfg, productCache, registry)
	cartService := service.NewCartService(catalog, service.NewMetrics(registry))
	defer func() {
		logger.Info().Msg("waiting for in-flight product fetches")
		cartService.Close()
		logger.Info().Msg("in-flight product fetches done")
	}()
	productService := productCmd.NewProductService(catalog, cartService, cfg)
	userService, err := userCmd.NewUserService(c, cfg, cache)
	if err != nil {
		err = fmt.Errorf("failed initializing user service with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.AppName), middleware.Logging, middleware.RecoverPanic)
	validator := validate.New()
	loginGate := middleware.RequireLogin(userService.LoggedIn)
	userCmd.AttachUserController(router, userService, validator)
	controller.AttachCartController(router, cartService, validator, loginGate)
	productCmd.AttachProductController(router, productService, loginGate)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})).
		Methods(http.MethodGet)
	logger.Info().Msg("initialized router")

	httpServer := http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context { return c },
		Handler:     router,
		ReadTimeout: 45 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(serverErr)
	}()

	select {
	case err = <-serverErr:
		if err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		return nil
	case <-c.Done():
	}

	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("shutdown http server")
	return nil
}
