package louvain

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages run configuration using Viper
type Config struct {
	v   *viper.Viper
	out io.Writer
}

// Settings is a validated snapshot of a Config
type Settings struct {
	LogLevel       string `validate:"oneof=trace debug info warn error disabled"`
	LogFormat      string `validate:"oneof=console json"`
	EnableProgress bool
	OutputDir      string
	OutputPrefix   string `validate:"required_with=OutputDir,excludesall=/"`
	SummaryFormat  string `validate:"oneof=json yaml"`
	TrackMoves     bool
	MovesFile      string `validate:"required_if=TrackMoves true"`
	MetricsFile    string
	RunID          string `validate:"omitempty,uuid"`
}

var validate = validator.New()

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.enable_progress", true)

	// Output parameters
	v.SetDefault("output.dir", "")
	v.SetDefault("output.prefix", "communities")
	v.SetDefault("output.summary_format", "json")

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	v.SetDefault("metrics.textfile", "")

	// Empty means a fresh id per run
	v.SetDefault("run.id", "")

	v.SetEnvPrefix("LOUVAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Viper exposes the underlying viper instance for flag binding
func (c *Config) Viper() *viper.Viper { return c.v }

// Getters for logging parameters
func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) LogFormat() string    { return c.v.GetString("logging.format") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) OutputDir() string     { return c.v.GetString("output.dir") }
func (c *Config) OutputPrefix() string  { return c.v.GetString("output.prefix") }
func (c *Config) SummaryFormat() string { return c.v.GetString("output.summary_format") }

func (c *Config) EnableMoveTracking() bool   { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) MetricsTextfile() string { return c.v.GetString("metrics.textfile") }
func (c *Config) RunID() string           { return c.v.GetString("run.id") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Settings returns a snapshot of the current configuration
func (c *Config) Settings() Settings {
	return Settings{
		LogLevel:       strings.ToLower(c.LogLevel()),
		LogFormat:      strings.ToLower(c.LogFormat()),
		EnableProgress: c.EnableProgress(),
		OutputDir:      c.OutputDir(),
		OutputPrefix:   c.OutputPrefix(),
		SummaryFormat:  strings.ToLower(c.SummaryFormat()),
		TrackMoves:     c.EnableMoveTracking(),
		MovesFile:      c.TrackingOutputFile(),
		MetricsFile:    c.MetricsTextfile(),
		RunID:          c.RunID(),
	}
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	settings := c.Settings()
	if err := validate.Struct(&settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SetLogOutput redirects loggers created by CreateLogger, stderr by default
func (c *Config) SetLogOutput(out io.Writer) {
	c.out = out
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	if c.out == nil {
		return c.CreateLoggerTo(os.Stderr)
	}
	return c.CreateLoggerTo(c.out)
}

// CreateLoggerTo creates a zerolog logger writing to out
func (c *Config) CreateLoggerTo(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel()))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if !c.EnableProgress() && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}

	var writer io.Writer = out
	if strings.ToLower(c.LogFormat()) != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Str("service", "louvain").Logger()
}
