package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Env        EnvConfig        `mapstructure:"env"`
	Render     RenderConfig     `mapstructure:"render"`
	Server     ServerConfig     `mapstructure:"server"`
	Experience ExperienceConfig `mapstructure:"experience"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// EnvConfig selects the registered environment and its options
type EnvConfig struct {
	ID              string `mapstructure:"id"`
	RenderMode      string `mapstructure:"render_mode"`
	MaxEpisodeSteps int    `mapstructure:"max_episode_steps"`
}

// RenderConfig holds window and pacing settings
type RenderConfig struct {
	WindowSize int    `mapstructure:"window_size"`
	FPS        int    `mapstructure:"fps"`
	Title      string `mapstructure:"title"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// GRPCConfig holds gRPC server configuration
type GRPCConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	MaxSessions           int           `mapstructure:"max_sessions"`
	SessionTTL            time.Duration `mapstructure:"session_ttl"`
	EnableReflection      bool          `mapstructure:"enable_reflection"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// Address returns host:port.
func (g GRPCConfig) Address() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// ExperienceConfig controls transition recording
type ExperienceConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Capacity int  `mapstructure:"capacity"`
}

// LoggingConfig holds log level and output format
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig holds goroutine monitor settings
type MonitoringConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Interval           time.Duration `mapstructure:"interval"`
	GoroutineThreshold int           `mapstructure:"goroutine_threshold"`
}

var (
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
	// overlay is the environment file merged by LoadEnvironmentConfig.
	overlay string
)

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("env.id", "TicTacToe-3x3-v0")
	v.SetDefault("env.render_mode", "")
	v.SetDefault("env.max_episode_steps", 100)

	v.SetDefault("render.window_size", 900)
	v.SetDefault("render.fps", 4)
	v.SetDefault("render.title", "Tic-Tac-Toe")

	v.SetDefault("server.grpc.host", "0.0.0.0")
	v.SetDefault("server.grpc.port", 50051)
	v.SetDefault("server.grpc.max_sessions", 100)
	v.SetDefault("server.grpc.session_ttl", 10*time.Minute)
	v.SetDefault("server.grpc.enable_reflection", true)
	v.SetDefault("server.grpc.graceful_shutdown_delay", 5*time.Second)

	v.SetDefault("experience.enabled", false)
	v.SetDefault("experience.capacity", 10000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.interval", 30*time.Second)
	v.SetDefault("monitoring.goroutine_threshold", 1000)
}

// New builds a standalone viper instance with defaults, search paths and
// environment bindings applied. configPath overrides the search paths.
func New(configPath string) *viper.Viper {
	nv := viper.New()
	setViperDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(".")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/tictactoe-rl")
	}

	nv.SetEnvPrefix("TTT")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	return nv
}

// Load reads configPath (or the default search paths) into a validated Config
// without touching the package-level instance.
func Load(configPath string) (*Config, *viper.Viper, error) {
	nv := New(configPath)

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
		// A missing file, explicit or searched for, falls back to defaults.
	}

	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nv, nil
}

// Init loads the configuration into the package-level instance.
func Init(configPath string) error {
	c, nv, err := Load(configPath)
	if err != nil {
		return err
	}
	mu.Lock()
	cfg, v, overlay = c, nv, ""
	mu.Unlock()
	return nil
}

// Get returns the global config instance, initialising it with defaults on
// first use.
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded values. The
// overlay is looked up next to the loaded config file, or in the working
// directory when none was found. A missing overlay is not an error and the
// base file stays the one reported by ConfigFilePath and watched by WatchConfig.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}
	nv := GetViper()

	dir := "."
	if base := nv.ConfigFileUsed(); base != "" {
		dir = filepath.Dir(base)
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	found, err := mergeOverlay(nv, envFile)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	mu.Lock()
	overlay = envFile
	mu.Unlock()
	return reload(nv)
}

// mergeOverlay reads path into its own viper and merges the settings into nv.
// It reports false when path does not exist.
func mergeOverlay(nv *viper.Viper, path string) (bool, error) {
	ov := viper.New()
	ov.SetConfigFile(path)
	if err := ov.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error reading environment config %s: %w", path, err)
	}
	if err := nv.MergeConfigMap(ov.AllSettings()); err != nil {
		return false, fmt.Errorf("error merging environment config %s: %w", path, err)
	}
	return true, nil
}

// Set allows runtime config updates
func Set(key string, value any) error {
	nv := GetViper()
	nv.Set(key, value)
	return reload(nv)
}

func reload(nv *viper.Viper) error {
	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return err
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
	return nil
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return GetViper().ConfigFileUsed()
}

// WatchConfig re-reads the file on every change. onChange receives the new
// config, or the validation error that caused it to be ignored.
func WatchConfig(onChange func(*Config, error)) {
	nv := GetViper()
	nv.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.RLock()
		envFile := overlay
		mu.RUnlock()
		var err error
		if envFile != "" {
			_, err = mergeOverlay(nv, envFile)
		}
		if err == nil {
			err = reload(nv)
		}
		if onChange != nil {
			onChange(Get(), err)
		}
	})
	nv.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Env.ID == "" {
		return fmt.Errorf("%w: env.id must not be empty", ErrInvalidConfig)
	}
	switch c.Env.RenderMode {
	case "", "none", "human", "rgb_array", "ansi":
	default:
		return fmt.Errorf("%w: env.render_mode %q is not supported", ErrInvalidConfig, c.Env.RenderMode)
	}
	if c.Env.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("%w: env.max_episode_steps must be positive", ErrInvalidConfig)
	}

	if c.Render.WindowSize < 3 {
		return fmt.Errorf("%w: render.window_size must be at least 3", ErrInvalidConfig)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("%w: render.fps must be positive", ErrInvalidConfig)
	}

	if c.Server.GRPC.Port <= 0 || c.Server.GRPC.Port > 65535 {
		return fmt.Errorf("%w: server.grpc.port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.Server.GRPC.MaxSessions <= 0 {
		return fmt.Errorf("%w: server.grpc.max_sessions must be positive", ErrInvalidConfig)
	}
	if c.Server.GRPC.SessionTTL < 0 {
		return fmt.Errorf("%w: server.grpc.session_ttl must be non-negative", ErrInvalidConfig)
	}
	if c.Server.GRPC.GracefulShutdownDelay < 0 {
		return fmt.Errorf("%w: server.grpc.graceful_shutdown_delay must be non-negative", ErrInvalidConfig)
	}

	if c.Experience.Capacity <= 0 {
		return fmt.Errorf("%w: experience.capacity must be positive", ErrInvalidConfig)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json", ErrInvalidConfig)
	}

	if c.Monitoring.Enabled && c.Monitoring.Interval <= 0 {
		return fmt.Errorf("%w: monitoring.interval must be positive", ErrInvalidConfig)
	}
	if c.Monitoring.GoroutineThreshold < 0 {
		return fmt.Errorf("%w: monitoring.goroutine_threshold must be non-negative", ErrInvalidConfig)
	}
	return nil
}
