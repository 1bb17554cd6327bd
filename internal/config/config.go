// Package config loads the server and CLI configuration from defaults, an
// optional YAML file, a .env file and the environment, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rezonia/facturae-processor/internal/codes"
)

// EnvPrefix prefixes every environment override: FACTURAE_SERVER_PORT
const EnvPrefix = "FACTURAE"

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Logger LoggerConfig `mapstructure:"logger"`
	Render RenderConfig `mapstructure:"render"`
	// Codes adds or replaces code table entries, keyed by table id and code
	Codes map[string]map[string]string `mapstructure:"codes"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
	// TimeZone is used when a request omits the registration date or time
	TimeZone string `mapstructure:"time_zone"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RenderConfig holds PDF output settings
type RenderConfig struct {
	PageSize string `mapstructure:"page_size"`
	Compress bool   `mapstructure:"compress"`
	Creator  string `mapstructure:"creator"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Location resolves TimeZone
func (s ServerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.TimeZone)
}

// Resolver returns the code resolver with Codes applied. Viper lowercases
// map keys, so codes are upper-cased back to their Facturae form.
func (c *Config) Resolver() *codes.Resolver {
	r := codes.NewResolver()
	if len(c.Codes) == 0 {
		return r
	}
	overrides := make(map[codes.TableID]map[string]string, len(c.Codes))
	for id, entries := range c.Codes {
		m := make(map[string]string, len(entries))
		for code, text := range entries {
			m[strings.ToUpper(strings.TrimSpace(code))] = text
		}
		overrides[codes.TableID(id)] = m
	}
	return r.WithOverrides(overrides)
}

// Load reads configuration. configPath may be empty; dotenvPath may be
// empty to skip .env loading. A missing .env file is not an error.
func Load(configPath, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_size", 20<<20)
	v.SetDefault("server.time_zone", "Europe/Madrid")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("render.page_size", "A4")
	v.SetDefault("render.compress", true)
	v.SetDefault("render.creator", "facturae-processor")
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive")
	}
	if _, err := c.Server.Location(); err != nil {
		return fmt.Errorf("server.time_zone: %w", err)
	}
	builtin := codes.NewResolver()
	for id := range c.Codes {
		if _, ok := builtin.Table(codes.TableID(id)); !ok {
			return fmt.Errorf("codes: unknown table %q", id)
		}
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	return nil
}
