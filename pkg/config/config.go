// Package config provides configuration loading and management.
//
// Values are resolved in order: Defaults, then the YAML file, then
// PANORAMA_* environment variables. Command-line flags are applied by the
// caller on top of the result.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/user/panorama/pkg/pipeline"
	"github.com/user/panorama/pkg/ports"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PANORAMA_"

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the full configuration for panorama.
type Config struct {
	// Output
	OutputPath string `yaml:"output" env:"OUTPUT" validate:"required"`
	Quality    int    `yaml:"quality" env:"QUALITY" validate:"min=1,max=100"`

	// Sampling
	MaxFrames int    `yaml:"max_frames" env:"MAX_FRAMES" validate:"min=0,max=500"`
	Stride    int    `yaml:"stride" env:"STRIDE" validate:"min=1"`
	Source    string `yaml:"source" env:"SOURCE" validate:"oneof=ffmpeg opencv"`

	FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`

	// Color correction
	Workers int `yaml:"workers" env:"WORKERS" validate:"min=1,max=256"`

	Stitcher StitcherConfig `yaml:"stitcher" env:", prefix=STITCHER_"`
	Log      LogConfig      `yaml:"log" env:", prefix=LOG_"`
	Server   ServerConfig   `yaml:"server" env:", prefix=SERVER_"`
	Storage  StorageConfig  `yaml:"storage" env:", prefix=S3_"`
	Database DatabaseConfig `yaml:"database" env:", prefix=DATABASE_"`

	// Debug
	Debug    bool   `yaml:"debug" env:"DEBUG"`
	DebugDir string `yaml:"debug_dir" env:"DEBUG_DIR"`
}

// StitcherConfig selects and tunes the stitching capability.
type StitcherConfig struct {
	Kind string `yaml:"kind" env:"KIND" validate:"oneof=shift opencv exec"`

	// opencv
	Mode string `yaml:"mode" env:"MODE" validate:"oneof=panorama scans"`

	// exec
	Command string   `yaml:"command" env:"COMMAND" validate:"required_if=Kind exec"`
	Args    []string `yaml:"args" env:"ARGS"`

	// shift
	WorkWidth  int     `yaml:"work_width" env:"WORK_WIDTH" validate:"min=16"`
	MinOverlap float64 `yaml:"min_overlap" env:"MIN_OVERLAP" validate:"gt=0,lte=1"`
	MaxCost    float64 `yaml:"max_cost" env:"MAX_COST" validate:"gt=0"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn warning error quiet"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=console text json"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR" validate:"required"`
	SessionLimit    int           `yaml:"session_limit" env:"SESSION_LIMIT" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"min=0"`
}

// StorageConfig enables mirroring outputs to S3-compatible storage.
type StorageConfig struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Region          string `yaml:"region" env:"REGION" validate:"required_with=Bucket"`
	Prefix          string `yaml:"prefix" env:"PREFIX"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

// Enabled reports whether a bucket is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// DatabaseConfig enables Postgres run history.
type DatabaseConfig struct {
	URL string `yaml:"url" env:"URL"`
}

// Enabled reports whether a database URL is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputPath: pipeline.DefaultOutputPath,
		Quality:    pipeline.DefaultJPEGQuality,

		MaxFrames: pipeline.DefaultMaxFrames,
		Stride:    pipeline.DefaultStride,
		Source:    "ffmpeg",

		Workers: 4,

		Stitcher: StitcherConfig{
			Kind:       "shift",
			Mode:       "panorama",
			WorkWidth:  160,
			MinOverlap: 0.3,
			MaxCost:    30,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},

		Server: ServerConfig{
			Addr:            ":8080",
			SessionLimit:    100,
			ShutdownTimeout: 30 * time.Second,
		},

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(fsys ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fsys.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load resolves Defaults, the optional YAML file at path and the
// environment seen through lookuper, then validates the result.
// A nil lookuper reads the process environment.
func Load(ctx context.Context, fsys ports.FileSystem, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(fsys, path); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(ctx, &cfg, lookuper); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with PANORAMA_* variables. Fields whose variable
// is unset keep their current value.
func ApplyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks value ranges and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// String returns a one-line description with secrets masked.
func (c Config) String() string {
	secret := ""
	if c.Storage.SecretAccessKey != "" {
		secret = "***"
	}
	return fmt.Sprintf(
		"Config{Output: %s, MaxFrames: %d, Stride: %d, Source: %s, Stitcher: %s, Workers: %d, S3Bucket: %s, S3Secret: %s, Database: %t}",
		c.OutputPath,
		c.MaxFrames,
		c.Stride,
		c.Source,
		c.Stitcher.Kind,
		c.Workers,
		c.Storage.Bucket,
		secret,
		c.Database.Enabled(),
	)
}
