package cmd

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/config"
	"github.com/Alturino/shopeasy/internal/constants"
	"github.com/Alturino/shopeasy/internal/infra"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/internal/validate"
	"github.com/Alturino/shopeasy/user/internal/controller"
	"github.com/Alturino/shopeasy/user/internal/credential"
	"github.com/Alturino/shopeasy/user/internal/otel"
	"github.com/Alturino/shopeasy/user/internal/service"
	"github.com/Alturino/shopeasy/user/pkg/request"
)

// AttachUserController mounts the auth routes on router.
func AttachUserController(router *mux.Router, userService *service.UserService, validate *validator.Validate) {
	controller.AttachUserController(router, userService, validate)
}

// NewUserService opens the credential store chosen by cfg.Credential.Driver.
// cache may be nil unless the driver is redis.
func NewUserService(c context.Context, cfg *config.Config, cache *redis.Client) (*service.UserService, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppUserService).
		Str(log.KeyTag, "main NewUserService").
		Str(log.KeyCredentialDriver, cfg.Credential.Driver).
		Logger()

	logger.Info().Msg("initializing credential store")
	store, err := credential.New(cfg.Credential, cache)
	if err != nil {
		err = fmt.Errorf("failed initializing credential store with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("initialized credential store")
	return service.NewUserService(store), nil
}

// RunUserCommand opens the credential store for a one-shot CLI command and
// closes the redis connection it may have opened.
func RunUserCommand(
	c context.Context,
	cfg *config.Config,
	name string,
	run func(context.Context, *service.UserService) error,
) (err error) {
	c, span := otel.Tracer.Start(c, name)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppUserService).
		Str(log.KeyTag, name).
		Logger()
	c = logger.WithContext(c)

	var cache *redis.Client
	if cfg.Credential.Driver == config.CredentialDriverRedis {
		logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
		cache, err = infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			err = fmt.Errorf("failed initializing cache with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		defer cache.Close()
	}

	svc, err := NewUserService(c, cfg, cache)
	if err != nil {
		inOtel.RecordError(err, span)
		return err
	}
	if err = run(c, svc); err != nil {
		inOtel.RecordError(err, span)
		return err
	}
	return nil
}

func RunRegister(c context.Context, cfg *config.Config, param request.Register) error {
	if err := validate.New().StructCtx(c, param); err != nil {
		return fmt.Errorf("failed validating registration with error=%w", err)
	}
	return RunUserCommand(c, cfg, "main RunRegister", func(c context.Context, svc *service.UserService) error {
		return svc.Register(c, param)
	})
}

func RunLogin(c context.Context, cfg *config.Config, param request.LoginRequest) error {
	if err := validate.New().StructCtx(c, param); err != nil {
		return fmt.Errorf("failed validating login with error=%w", err)
	}
	return RunUserCommand(c, cfg, "main RunLogin", func(c context.Context, svc *service.UserService) error {
		return svc.Login(c, param)
	})
}

func RunLogout(c context.Context, cfg *config.Config) error {
	return RunUserCommand(c, cfg, "main RunLogout", func(c context.Context, svc *service.UserService) error {
		return svc.Logout(c)
	})
}
