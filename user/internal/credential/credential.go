// Package credential persists the single local login of the application.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/config"
)

var (
	ErrUnknownDriver = errors.New("unknown credential driver")
	ErrMissingCache  = errors.New("redis credential driver requires a cache client")
)

type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (cr Credential) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", cr.Email).Str("password", "***")
}

// Store holds at most one credential. Load reports false, not an error, when
// nothing is stored.
type Store interface {
	Load(c context.Context) (Credential, bool, error)
	Save(c context.Context, cred Credential) error
	Clear(c context.Context) error
}

// New builds the store selected by cfg.Driver. cache is only used by the
// redis driver.
func New(cfg config.Credential, cache *redis.Client) (Store, error) {
	switch cfg.Driver {
	case config.CredentialDriverFile:
		store, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CredentialDriverRedis:
		if cache == nil {
			return nil, ErrMissingCache
		}
		return NewRedisStore(cache, KeyCredentials), nil
	default:
		return nil, fmt.Errorf("driver=%s: %w", cfg.Driver, ErrUnknownDriver)
	}
}
