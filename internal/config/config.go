package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the client configuration
type Config struct {
	APIURL         string        `yaml:"api_url" mapstructure:"api_url"`
	SocketURL      string        `yaml:"socket_url" mapstructure:"socket_url"`
	SessionDB      string        `yaml:"session_db" mapstructure:"session_db"`
	LogFile        string        `yaml:"log_file" mapstructure:"log_file"`
	LogLevel       string        `yaml:"log_level" mapstructure:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	SearchDebounce time.Duration `yaml:"search_debounce" mapstructure:"search_debounce"`
	Breaker        BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the API
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" mapstructure:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

const envPrefix = "TASKFLOW"

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:5000/api")
	v.SetDefault("socket_url", "")
	v.SetDefault("session_db", filepath.Join(Dir(), "session.db"))
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("search_debounce", 300*time.Millisecond)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 10*time.Second)
}

// Load builds the configuration from defaults, .env, the YAML files and
// TASKFLOW_* environment variables, later sources overriding earlier ones.
// With no files given the global and project config paths are used.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(files) == 0 {
		files = []string{GlobalConfigPath(), ProjectConfigPath()}
	}
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.SocketURL == "" {
		socketURL, err := DeriveSocketURL(cfg.APIURL)
		if err != nil {
			return nil, err
		}
		cfg.SocketURL = socketURL
	}
	return cfg, cfg.Validate()
}

// Validate checks that the API origin is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// DeriveSocketURL maps http(s)://host/api to ws(s)://host/socket.
func DeriveSocketURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid api_url %q", apiURL)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/socket"
	u.RawQuery = ""
	return u.String(), nil
}

// Dir is the directory holding the global config and session database
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskflow"
	}
	return filepath.Join(home, ".taskflow")
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ProjectConfigPath returns the path to the working-directory config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".taskflow.yaml")
}
