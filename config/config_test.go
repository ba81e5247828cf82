package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"termtris/tetris"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	EnvLogLevel, EnvLogFile, EnvStartLevel, EnvSeed,
	EnvRandomizer, EnvPauseGravity, EnvInputTimeout, EnvNoAnimation,
}

// clearEnv blanks every variable Load reads, lookup treats them as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
	assert.True(t, c.PauseGravity)
	assert.Equal(t, time.Second, c.InputTimeout)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFile, "/tmp/tetris.log")
	t.Setenv(EnvStartLevel, "5")
	t.Setenv(EnvSeed, "1234")
	t.Setenv(EnvRandomizer, "bag")
	t.Setenv(EnvPauseGravity, "false")
	t.Setenv(EnvInputTimeout, "250ms")
	t.Setenv(EnvNoAnimation, "true")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogLevel:     slog.LevelDebug,
		LogFile:      "/tmp/tetris.log",
		StartLevel:   5,
		Seed:         1234,
		Randomizer:   Bag,
		PauseGravity: false,
		InputTimeout: 250 * time.Millisecond,
		NoAnimation:  true,
	}, c)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv doesn't override variables that are set, even when empty.
	for _, k := range []string{EnvStartLevel, EnvRandomizer} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvStartLevel) //nolint:errcheck
		os.Unsetenv(EnvRandomizer) //nolint:errcheck
	})
	t.Setenv(EnvLogLevel, "warn")

	f := filepath.Join(t.TempDir(), "tetris.env")
	require.NoError(t, os.WriteFile(f, []byte("TETRIS_START_LEVEL=3\nTETRIS_RANDOMIZER=bag\nTETRIS_LOG_LEVEL=error\n"), 0o600))

	c, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, 3, c.StartLevel)
	assert.Equal(t, Bag, c.Randomizer)
	assert.Equal(t, slog.LevelWarn, c.LogLevel, "the environment wins over the file")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{EnvLogLevel, "loud", EnvLogLevel},
		{EnvStartLevel, "three", EnvStartLevel},
		{EnvStartLevel, "0", "out of range"},
		{EnvStartLevel, "26", "out of range"},
		{EnvSeed, "-1", EnvSeed},
		{EnvRandomizer, "7bag", "unknown randomizer"},
		{EnvPauseGravity, "maybe", EnvPauseGravity},
		{EnvInputTimeout, "soon", EnvInputTimeout},
		{EnvInputTimeout, "-1s", "must be positive"},
		{EnvNoAnimation, "nope", EnvNoAnimation},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerator(t *testing.T) {
	c := Default()
	c.Seed = 99
	c.Randomizer = Bag
	g := c.Generator()
	seen := make(map[tetris.Kind]bool)
	for range 7 {
		seen[g.Next().Kind] = true
	}
	assert.Len(t, seen, 7)

	c.Randomizer = Uniform
	a, b := c.Generator(), c.Generator()
	for range 20 {
		assert.Equal(t, a.Next(), b.Next())
	}
}
