package solconfig

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// defaultSolidityVersion is used when the configuration has no solc section
	defaultSolidityVersion = "0.5.16"
)

// Config is the loader configuration
type Config struct {
	// Format forces the file format instead of detecting it from the extension
	Format Format

	// Strict turns unknown keys into validation errors
	Strict bool

	// SolidityVersion is the compiler version used when none is configured
	SolidityVersion string

	Logger logrus.FieldLogger
}

func DefaultConfig() *Config {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Config{
		SolidityVersion: defaultSolidityVersion,
		Logger:          logger,
	}
}

type Option func(*Config)

func WithFormat(format Format) Option {
	return func(c *Config) {
		c.Format = format
	}
}

func WithStrict() Option {
	return func(c *Config) {
		c.Strict = true
	}
}

func WithSolidityVersion(version string) Option {
	return func(c *Config) {
		c.SolidityVersion = version
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
