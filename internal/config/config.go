// Package config loads client settings from a YAML file, the environment and
// values saved with `steamrec config set`, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	EnvLocal    = "local"
	EnvDeployed = "deployed"

	// Environment variables that override the file.
	EnvVarEnvironment = "STEAMREC_ENV"
	EnvVarBaseURL     = "STEAMREC_BASE_URL"
)

// Keys lists the settings that can be stored with `config set`.
var Keys = []string{
	"environment",
	"local_url",
	"deployed_url",
	"timeout",
	"niche_factor",
	"language",
	"log_file",
}

// Config holds the client settings.
type Config struct {
	Environment string        `yaml:"environment" validate:"oneof=local deployed"`
	LocalURL    string        `yaml:"local_url" validate:"required,url"`
	DeployedURL string        `yaml:"deployed_url" validate:"omitempty,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	NicheFactor float64       `yaml:"niche_factor" validate:"gte=0,lte=1"`
	Language    string        `yaml:"language" validate:"required"`
	LogFile     string        `yaml:"log_file"`

	// baseURL is set from STEAMREC_BASE_URL and wins over both environments.
	baseURL string
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Environment: EnvLocal,
		LocalURL:    "http://127.0.0.1:5000",
		Timeout:     15 * time.Second,
		NicheFactor: 0.5,
		Language:    "en",
		LogFile:     filepath.Join(Dir(), "steamrec.log"),
	}
}

// Dir is the per-user state directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".steamrec"
	}
	return filepath.Join(home, ".steamrec")
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvVarEnvironment)); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvVarBaseURL)); v != "" {
		c.baseURL = v
	}
}

// Getter is the part of the store that holds saved settings.
type Getter interface {
	GetConfig(key string) (string, error)
}

// ApplyStore overlays every saved setting onto c.
func (c *Config) ApplyStore(g Getter) error {
	for _, key := range Keys {
		v, err := g.GetConfig(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("stored value for %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value into the named setting.
func (c *Config) Set(key, value string) error {
	switch key {
	case "environment":
		c.Environment = strings.ToLower(value)
	case "local_url":
		c.LocalURL = value
	case "deployed_url":
		c.DeployedURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		c.Timeout = d
	case "niche_factor":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid niche factor %q: %w", value, err)
		}
		c.NicheFactor = f
	case "language":
		c.Language = value
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// IsKey reports whether key is a recognised setting.
func IsKey(key string) bool {
	return slices.Contains(Keys, key)
}

var validate = validator.New()

// Validate checks every field and the language tag.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			return fmt.Errorf("invalid config: %s failed %q", strings.ToLower(f.Field()), f.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Environment == EnvDeployed && c.DeployedURL == "" && c.baseURL == "" {
		return errors.New("invalid config: deployed_url is required when environment is deployed")
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("invalid config: language %q: %w", c.Language, err)
	}
	return nil
}

// OverrideBaseURL pins the service address regardless of environment.
func (c *Config) OverrideBaseURL(u string) {
	c.baseURL = u
}

// BaseURL resolves the service address for the selected environment.
func (c *Config) BaseURL() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	if c.Environment == EnvDeployed {
		return c.DeployedURL
	}
	return c.LocalURL
}

// Tag returns the collation language, falling back to English.
func (c *Config) Tag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// Save writes c as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
