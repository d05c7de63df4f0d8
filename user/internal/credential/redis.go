package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/user/internal/otel"
)

const KeyCredentials = "credentials"

// RedisStore keeps the credential as JSON under a single key with no expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(c context.Context) (Credential, bool, error) {
	c, span := otel.Tracer.Start(c, "RedisStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Load").
		Str(log.KeyCacheKey, s.key).
		Logger()

	data, err := s.client.Get(c, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("no credential stored")
		return Credential{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting credential from redis with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Credential{}, false, err
	}

	cred := Credential{}
	if err := json.Unmarshal(data, &cred); err != nil {
		err = fmt.Errorf("failed decoding credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Credential{}, false, err
	}
	return cred, true, nil
}

func (s *RedisStore) Save(c context.Context, cred Credential) error {
	c, span := otel.Tracer.Start(c, "RedisStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Save").
		Str(log.KeyCacheKey, s.key).
		Object(log.KeyCredential, cred).
		Logger()

	data, err := json.Marshal(cred)
	if err != nil {
		err = fmt.Errorf("failed encoding credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.client.Set(c, s.key, data, 0).Err(); err != nil {
		err = fmt.Errorf("failed setting credential in redis with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("saved credential")
	return nil
}

func (s *RedisStore) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "RedisStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Clear").
		Str(log.KeyCacheKey, s.key).
		Logger()

	if err := s.client.Del(c, s.key).Err(); err != nil {
		err = fmt.Errorf("failed deleting credential from redis with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("cleared credential")
	return nil
}
