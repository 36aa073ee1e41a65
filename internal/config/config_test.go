package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	mu.Lock()
	cfg = nil
	v = nil
	overlay = ""
	mu.Unlock()
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
env:
  max_episode_steps: 50
  render_mode: ansi
render:
  fps: 10
server:
  grpc:
    port: 8080
    session_ttl: 2m
experience:
  enabled: true
  capacity: 256
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	resetGlobals(t)
	require.NoError(t, Init(configFile))

	c := Get()
	assert.Equal(t, 50, c.Env.MaxEpisodeSteps)
	assert.Equal(t, "ansi", c.Env.RenderMode)
	assert.Equal(t, 10, c.Render.FPS)
	assert.Equal(t, 8080, c.Server.GRPC.Port)
	assert.Equal(t, 2*time.Minute, c.Server.GRPC.SessionTTL)
	assert.True(t, c.Experience.Enabled)
	assert.Equal(t, 256, c.Experience.Capacity)
	assert.Equal(t, configFile, ConfigFilePath())

	// untouched keys keep defaults
	assert.Equal(t, "TicTacToe-3x3-v0", c.Env.ID)
	assert.Equal(t, 900, c.Render.WindowSize)
}

func TestInitWithDefaults(t *testing.T) {
	resetGlobals(t)

	require.NoError(t, Init("/non/existent/path/config.yaml"))

	c := Get()
	require.NotNil(t, c)
	assert.Equal(t, "TicTacToe-3x3-v0", c.Env.ID)
	assert.Equal(t, "", c.Env.RenderMode)
	assert.Equal(t, 100, c.Env.MaxEpisodeSteps)
	assert.Equal(t, 4, c.Render.FPS)
	assert.Equal(t, "0.0.0.0:50051", c.Server.GRPC.Address())
	assert.Equal(t, 100, c.Server.GRPC.MaxSessions)
	assert.Equal(t, 10*time.Minute, c.Server.GRPC.SessionTTL)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "console", c.Logging.Format)
	assert.False(t, c.Monitoring.Enabled)
}

func TestEnvironmentVariables(t *testing.T) {
	resetGlobals(t)

	t.Setenv("TTT_ENV_MAX_EPISODE_STEPS", "30")
	t.Setenv("TTT_SERVER_GRPC_PORT", "9090")
	t.Setenv("TTT_SERVER_GRPC_SESSION_TTL", "45s")

	require.NoError(t, Init("/non/existent/config.yaml"))

	c := Get()
	assert.Equal(t, 30, c.Env.MaxEpisodeSteps)
	assert.Equal(t, 9090, c.Server.GRPC.Port)
	assert.Equal(t, 45*time.Second, c.Server.GRPC.SessionTTL)
}

func TestInit_InvalidValuesRejected(t *testing.T) {
	resetGlobals(t)

	t.Setenv("TTT_ENV_RENDER_MODE", "hologram")

	err := Init("/non/existent/config.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "hologram")
}

func TestInit_MalformedFileRejected(t *testing.T) {
	resetGlobals(t)
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("env: [unterminated\n"), 0644))

	err := Init(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestSet(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, Init("/non/existent/config.yaml"))

	require.NoError(t, Set("render.fps", 30))
	require.NoError(t, Set("server.grpc.max_sessions", 8))

	c := Get()
	assert.Equal(t, 30, c.Render.FPS)
	assert.Equal(t, 8, c.Server.GRPC.MaxSessions)

	err := Set("server.grpc.port", 70000)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 50051, Get().Server.GRPC.Port, "invalid update must not replace the config")
}

func TestLoad_DoesNotTouchGlobals(t *testing.T) {
	resetGlobals(t)

	c, nv, err := Load("/non/existent/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, nv)
	assert.Equal(t, 100, c.Env.MaxEpisodeSteps)

	mu.RLock()
	defer mu.RUnlock()
	assert.Nil(t, cfg)
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "config.yaml")
	baseContent := `
env:
  max_episode_steps: 20
server:
  grpc:
    port: 50051
`
	require.NoError(t, os.WriteFile(baseConfig, []byte(baseContent), 0644))

	envContent := `
env:
  max_episode_steps: 40
server:
  grpc:
    port: 8080
logging:
  level: error
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.prod.yaml"), []byte(envContent), 0644))

	resetGlobals(t)
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("prod"))

	c := Get()
	assert.Equal(t, 40, c.Env.MaxEpisodeSteps)
	assert.Equal(t, 8080, c.Server.GRPC.Port)
	assert.Equal(t, "error", c.Logging.Level)
	assert.Equal(t, baseConfig, ConfigFilePath())
}

func TestLoadEnvironmentConfig_MissingOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	baseConfig := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(baseConfig, []byte("env:\n  max_episode_steps: 20\n"), 0644))

	resetGlobals(t)
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("staging"))

	assert.Equal(t, 20, Get().Env.MaxEpisodeSteps)
	assert.Equal(t, baseConfig, ConfigFilePath())
}

func TestLoadEnvironmentConfig_MalformedOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	baseConfig := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(baseConfig, []byte("env:\n  max_episode_steps: 20\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.dev.yaml"), []byte("env: [unclosed\n"), 0644))

	resetGlobals(t)
	require.NoError(t, Init(baseConfig))
	assert.Error(t, LoadEnvironmentConfig("dev"))
	assert.Equal(t, 20, Get().Env.MaxEpisodeSteps)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c, _, err := Load("/non/existent/config.yaml")
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty env id", func(c *Config) { c.Env.ID = "" }},
		{"unknown render mode", func(c *Config) { c.Env.RenderMode = "vr" }},
		{"zero max steps", func(c *Config) { c.Env.MaxEpisodeSteps = 0 }},
		{"tiny window", func(c *Config) { c.Render.WindowSize = 2 }},
		{"zero fps", func(c *Config) { c.Render.FPS = 0 }},
		{"port out of range", func(c *Config) { c.Server.GRPC.Port = 0 }},
		{"no sessions", func(c *Config) { c.Server.GRPC.MaxSessions = 0 }},
		{"negative ttl", func(c *Config) { c.Server.GRPC.SessionTTL = -time.Second }},
		{"zero capacity", func(c *Config) { c.Experience.Capacity = 0 }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"monitor without interval", func(c *Config) {
			c.Monitoring.Enabled = true
			c.Monitoring.Interval = 0
		}},
	}

	assert.NoError(t, Validate(valid()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorIs(t, Validate(c), ErrInvalidConfig)
		})
	}
}

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("render:\n  fps: 5\n"), 0644))

	resetGlobals(t)
	require.NoError(t, Init(configFile))
	require.Equal(t, 5, Get().Render.FPS)

	changed := make(chan int, 8)
	WatchConfig(func(c *Config, err error) {
		if err != nil {
			return
		}
		select {
		case changed <- c.Render.FPS:
		default:
		}
	})

	require.NoError(t, os.WriteFile(configFile, []byte("render:\n  fps: 12\n"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case fps := <-changed:
			if fps == 12 {
				assert.Equal(t, 12, Get().Render.FPS)
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}
