package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/shopeasy/internal/log"
)

type Application struct {
	Env     string `mapstructure:"env"      json:"env"`
	Host    string `mapstructure:"host"     json:"host"`
	LogPath string `mapstructure:"log_path" json:"log_path"`
	Port    int    `mapstructure:"port"     json:"port"`
}

type Breaker struct {
	MaxFailures uint32        `mapstructure:"max_failures" json:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" json:"open_timeout"`
}

type Catalog struct {
	BaseURL  string        `mapstructure:"base_url"  json:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"   json:"timeout"`
	PageSize int           `mapstructure:"page_size" json:"page_size"`
	Breaker  Breaker       `mapstructure:"breaker"   json:"breaker"`
}

type Cache struct {
	Host     string        `mapstructure:"host"     json:"host"`
	Password string        `mapstructure:"password" json:"-"`
	TTL      time.Duration `mapstructure:"ttl"      json:"ttl"`
	Database int           `mapstructure:"database" json:"database"`
	Port     uint16        `mapstructure:"port"     json:"port"`
	Enabled  bool          `mapstructure:"enabled"  json:"enabled"`
}

type Credential struct {
	Driver string `mapstructure:"driver" json:"driver"`
	Path   string `mapstructure:"path"   json:"path"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Catalog     `mapstructure:"catalog"     json:"catalog"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Credential  `mapstructure:"credential"  json:"credential"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

const (
	CredentialDriverFile  = "file"
	CredentialDriverRedis = "redis"
)

var (
	once   sync.Once
	config *Config
)

// InitConfig reads ./env/<filename>.yaml once. A missing file is not an
// error, every key has a default and can be overridden from the environment
// (catalog.base_url -> CATALOG_BASE_URL).
func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger.Info().Msg("reading config")
		cfg, err := Load(viper.New(), filename, "./env")
		if err != nil {
			err = fmt.Errorf("failed loading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("loaded config")
	})
	return config
}

func Load(v *viper.Viper, filename string, paths ...string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		notFound := viper.ConfigFileNotFoundError{}
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error when reading config with error=%w", err)
		}
	}

	cfg := Config{}
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config with error=%w", err)
	}
	if cfg.Catalog.PageSize <= 0 {
		return nil, fmt.Errorf("catalog.page_size must be positive, got %d", cfg.Catalog.PageSize)
	}
	switch cfg.Credential.Driver {
	case CredentialDriverFile, CredentialDriverRedis:
	default:
		return nil, fmt.Errorf("unknown credential.driver=%s", cfg.Credential.Driver)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.log_path", "")

	v.SetDefault("catalog.base_url", "https://fakestoreapi.com")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.page_size", 6)
	v.SetDefault("catalog.breaker.max_failures", 5)
	v.SetDefault("catalog.breaker.open_timeout", 30*time.Second)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.database", 0)
	v.SetDefault("cache.ttl", 15*time.Minute)

	v.SetDefault("credential.driver", CredentialDriverFile)
	v.SetDefault("credential.path", "")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
}
