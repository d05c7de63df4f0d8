package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/user/internal/credential"
	"github.com/Alturino/shopeasy/user/internal/otel"
	"github.com/Alturino/shopeasy/user/pkg/request"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("a user is already registered, logout first")
)

// UserService gates the app on a single locally stored credential. Being
// logged in means a credential exists in the store.
type UserService struct {
	store credential.Store
}

func NewUserService(store credential.Store) *UserService {
	return &UserService{store: store}
}

// Register stores the credential. An existing credential must be cleared
// with Logout first.
func (u *UserService) Register(c context.Context, param request.Register) error {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading credential").Logger()
	logger.Trace().Msg("loading credential")
	c = logger.WithContext(c)
	_, exists, err := u.store.Load(c)
	if err != nil {
		err = fmt.Errorf("failed loading credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if exists {
		inOtel.RecordError(ErrAlreadyRegistered, span)
		logger.Info().Err(ErrAlreadyRegistered).Msg(ErrAlreadyRegistered.Error())
		return ErrAlreadyRegistered
	}

	logger = logger.With().Str(log.KeyProcess, "saving credential").Logger()
	logger.Trace().Msg("saving credential")
	err = u.store.Save(c, credential.Credential{Email: param.Email, Password: param.Password})
	if err != nil {
		err = fmt.Errorf("failed saving credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("registered user")
	return nil
}

// Login checks param against the stored credential.
func (u *UserService) Login(c context.Context, param request.LoginRequest) error {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading credential").Logger()
	logger.Trace().Msg("loading credential")
	c = logger.WithContext(c)
	stored, exists, err := u.store.Load(c)
	if err != nil {
		err = fmt.Errorf("failed loading credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "verifying credential").Logger()
	if !exists || stored.Email != param.Email || stored.Password != param.Password {
		inOtel.RecordError(ErrInvalidCredentials, span)
		logger.Info().Err(ErrInvalidCredentials).Msg(ErrInvalidCredentials.Error())
		return ErrInvalidCredentials
	}
	logger.Info().Msg("logged in")
	return nil
}

func (u *UserService) Logout(c context.Context) error {
	c, span := otel.Tracer.Start(c, "UserService Logout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserService Logout").Logger()

	c = logger.WithContext(c)
	if err := u.store.Clear(c); err != nil {
		err = fmt.Errorf("failed clearing credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("logged out")
	return nil
}

// LoggedIn matches middleware.LoggedInFunc.
func (u *UserService) LoggedIn(c context.Context) (bool, error) {
	_, exists, err := u.store.Load(c)
	return exists, err
}
