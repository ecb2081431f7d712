package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "STREAMKIT"

// Settings holds the tunable defaults of the operator runtime.
type Settings struct {
	// BufferSize is the default capacity of operator buffers: the overflow
	// buffer and the flat-map main and inner queues.
	BufferSize int `mapstructure:"buffer_size" validate:"gte=1"`
	// Concurrency is the default number of inner publishers a flat-map
	// subscribes to simultaneously.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`
	// EmitOnQueueSize is the hand-off queue capacity of the emit-on
	// operator; it is also the replenish batch size of its drain loop.
	EmitOnQueueSize int `mapstructure:"emit_on_queue_size" validate:"gte=1"`
}

// DefaultSettings mirrors the runtime's built-in constants.
func DefaultSettings() Settings {
	return Settings{
		BufferSize:      128,
		Concurrency:     8,
		EmitOnQueueSize: 16,
	}
}

// LoaderOption configures Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// Load reads settings from the optional config file and STREAMKIT_*
// environment variables, then validates the result.
func Load(opts ...LoaderOption) (Settings, error) {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			return Settings{}, fmt.Errorf("loading env file %s: %w", lc.envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("[config] warning: failed to load .env file: %v\n", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("buffer_size", defaults.BufferSize)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("emit_on_queue_size", defaults.EmitOnQueueSize)

	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading config file %s: %w", lc.configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshalling settings: %w", err)
	}

	if err := validator.New().Struct(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// --- Process-wide settings ---

var (
	runtimeMu       sync.RWMutex
	runtimeSettings *Settings
)

// Runtime returns the process-wide settings, loading them once on first use.
// A failed load falls back to the built-in defaults.
func Runtime() Settings {
	runtimeMu.RLock()
	if s := runtimeSettings; s != nil {
		runtimeMu.RUnlock()
		return *s
	}
	runtimeMu.RUnlock()

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeSettings == nil {
		s, err := Load()
		if err != nil {
			fmt.Printf("[config] warning: falling back to defaults: %v\n", err)
			s = DefaultSettings()
		}
		runtimeSettings = &s
	}
	return *runtimeSettings
}

// SetRuntime overrides the process-wide settings. Intended for application
// bootstrap and tests.
func SetRuntime(s Settings) {
	runtimeMu.Lock()
	runtimeSettings = &s
	runtimeMu.Unlock()
}
