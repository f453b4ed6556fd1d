package session

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything the Manager needs to talk to the backend and
// persist credentials. Values load from a YAML file with environment
// variables layered on top; zero values fall back to defaults.
type Config struct {
	BaseURL     string `yaml:"base_url" env:"SESSION_BASE_URL"`
	LoginPath   string `yaml:"login_path" env:"SESSION_LOGIN_PATH" env-default:"/login"`
	RefreshPath string `yaml:"refresh_path" env:"SESSION_REFRESH_PATH" env-default:"/tools/refresh-token"`
	StoragePath string `yaml:"storage_path" env:"SESSION_STORAGE_PATH"`
	StorageDSN  string `yaml:"storage_dsn" env:"SESSION_STORAGE_DSN"`

	RefreshMargin  time.Duration `yaml:"refresh_margin" env:"SESSION_REFRESH_MARGIN" env-default:"5m"`
	LoadMargin     time.Duration `yaml:"load_margin" env:"SESSION_LOAD_MARGIN" env-default:"30s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SESSION_REQUEST_TIMEOUT" env-default:"10s"`
}

// Validate checks the configuration before any component is built.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.LoginPath, validation.Required),
		validation.Field(&c.RefreshPath, validation.Required),
		validation.Field(&c.RefreshMargin, validation.Min(time.Duration(0))),
		validation.Field(&c.LoadMargin, validation.Min(time.Duration(0))),
	)
}

// LoadConfig reads configuration from an optional YAML file, then
// overlays environment variables. Pass an empty path to use env only.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoadConfig is LoadConfig with a panic on failure.
func MustLoadConfig(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
