package beatforge

import "github.com/himanishpuri/beatforge/pkg/logger"

// Config is the process-wide configuration for a pipeline run, built with
// functional options the same way pkg/acousticdna.Config is.
type Config struct {
	SampleRate      int
	RunStoreDBPath  string
	TempDir         string
	Logger          *logger.Logger
	DefaultBarCount int
}

type Option func(*Config)

func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

func WithRunStoreDBPath(path string) Option {
	return func(c *Config) { c.RunStoreDBPath = path }
}

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithDefaultBarCount(n int) Option {
	return func(c *Config) { c.DefaultBarCount = n }
}

func defaultConfig() *Config {
	return &Config{
		SampleRate:      44100,
		RunStoreDBPath:  "beatforge.sqlite3",
		TempDir:         "/tmp",
		Logger:          logger.GetLogger(),
		DefaultBarCount: 4,
	}
}

// NewConfig applies options over the default configuration.
func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
