package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vk/nodeflowgo/internal/host"
	"github.com/vk/nodeflowgo/internal/remote"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// GraphPath is a graph document file or a directory of them.
	GraphPath string `yaml:"graph" validate:"required"`

	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=text json"`
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	TickInterval time.Duration `yaml:"tick_interval" validate:"gte=0"`
	Propagation  string        `yaml:"propagation" validate:"omitempty,oneof=all primary"`
	Watch        bool          `yaml:"watch"`

	Remote remote.DialConfig `yaml:"remote"`

	HealthcheckPort int    `yaml:"healthcheck_port" validate:"gte=0,lte=65535"`
	MetricsAddr     string `yaml:"metrics_addr" validate:"omitempty,tcp_addr"`

	// CodegenDir, when set, receives fresh artifacts after every load.
	CodegenDir      string   `yaml:"codegen_dir"`
	CodegenBase     string   `yaml:"codegen_base" validate:"omitempty,excludesall=/\\"`
	CodegenBackends []string `yaml:"codegen_backends" validate:"dive,oneof=c host ir"`
}

// DefaultConfig returns the defaults every entrypoint starts from.
func DefaultConfig() Config {
	return Config{
		LogFormat:       "text",
		LogLevel:        "info",
		TickInterval:    host.DefaultTickInterval,
		Propagation:     "all",
		CodegenBase:     "graph",
		CodegenBackends: []string{"c", "host", "ir"},
	}
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}
