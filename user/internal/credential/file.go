package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/user/internal/otel"
)

const defaultFileName = "credentials.json"

// FileStore keeps the credential as JSON in a file only the owner can read.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore uses path, or ~/.shopeasy/credentials.json when path is
// empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed resolving home directory with error=%w", err)
		}
		path = filepath.Join(home, ".shopeasy", defaultFileName)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(c context.Context) (Credential, bool, error) {
	c, span := otel.Tracer.Start(c, "FileStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "FileStore Load").Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Trace().Msg("no credential stored")
		return Credential{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed reading credential file with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Credential{}, false, err
	}

	cred := Credential{}
	if err := json.Unmarshal(data, &cred); err != nil {
		err = fmt.Errorf("failed decoding credential file with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Credential{}, false, err
	}
	return cred, true, nil
}

func (s *FileStore) Save(c context.Context, cred Credential) error {
	c, span := otel.Tracer.Start(c, "FileStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore Save").
		Object(log.KeyCredential, cred).
		Logger()

	data, err := json.Marshal(cred)
	if err != nil {
		err = fmt.Errorf("failed encoding credential with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "writing credential file").Logger()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		err = fmt.Errorf("failed creating credential directory with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), defaultFileName+".*")
	if err != nil {
		err = fmt.Errorf("failed creating temporary credential file with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o600)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path)
	}
	if err != nil {
		err = fmt.Errorf("failed writing credential file with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("wrote credential file")
	return nil
}

func (s *FileStore) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "FileStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "FileStore Clear").Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("failed removing credential file with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("removed credential file")
	return nil
}
