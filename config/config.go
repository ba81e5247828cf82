// Package config reads the game settings from the environment. A .env file in
// the working directory, when present, is loaded first and never overrides
// variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"termtris/tetris"

	"github.com/joho/godotenv"
)

const (
	EnvLogLevel     = "TETRIS_LOG_LEVEL"
	EnvLogFile      = "TETRIS_LOG_FILE"
	EnvStartLevel   = "TETRIS_START_LEVEL"
	EnvSeed         = "TETRIS_SEED"
	EnvRandomizer   = "TETRIS_RANDOMIZER"
	EnvPauseGravity = "TETRIS_PAUSE_GRAVITY"
	EnvInputTimeout = "TETRIS_INPUT_TIMEOUT"
	EnvNoAnimation  = "TETRIS_NO_ANIMATION"
)

type Randomizer string

const (
	Uniform Randomizer = "uniform" // any kind in any orientation, every time.
	Bag     Randomizer = "bag"     // every kind once per seven pieces.
)

type Config struct {
	LogLevel slog.Level
	// LogFile is where JSON logs go. Logs are discarded when it's empty, the
	// terminal belongs to the game.
	LogFile    string
	StartLevel int
	// Seed for the piece generator. 0 picks one from the clock.
	Seed         uint64
	Randomizer   Randomizer
	PauseGravity bool
	// InputTimeout bounds how long the input loop waits for a key before it
	// checks whether the game is over.
	InputTimeout time.Duration
	NoAnimation  bool
}

func Default() *Config {
	return &Config{
		LogLevel:     slog.LevelInfo,
		StartLevel:   1,
		Randomizer:   Uniform,
		PauseGravity: true,
		InputTimeout: time.Second,
	}
}

// Load reads the given env files, .env when none is given, and then the
// environment. Missing files are fine, malformed values are not.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load env file: %w", err)
	}

	c := Default()
	var errs []error
	if v, ok := lookup(EnvLogLevel); ok {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		}
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.LogFile = v
	}
	if v, ok := lookup(EnvStartLevel); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvStartLevel, err))
		}
		c.StartLevel = n
	}
	if v, ok := lookup(EnvSeed); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSeed, err))
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvRandomizer); ok {
		c.Randomizer = Randomizer(v)
	}
	if v, ok := lookup(EnvPauseGravity); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPauseGravity, err))
		}
		c.PauseGravity = b
	}
	if v, ok := lookup(EnvInputTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvInputTimeout, err))
		}
		c.InputTimeout = d
	}
	if v, ok := lookup(EnvNoAnimation); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvNoAnimation, err))
		}
		c.NoAnimation = b
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the ranges. Flags can change a loaded Config, so callers
// run it again after applying them.
func (c *Config) Validate() error {
	var errs []error
	if c.StartLevel < 1 || c.StartLevel > tetris.MaxLevel {
		errs = append(errs, fmt.Errorf("start level %d is out of range [1, %d]", c.StartLevel, tetris.MaxLevel))
	}
	if c.Randomizer != Uniform && c.Randomizer != Bag {
		errs = append(errs, fmt.Errorf("unknown randomizer %q, use %q or %q", c.Randomizer, Uniform, Bag))
	}
	if c.InputTimeout <= 0 {
		errs = append(errs, fmt.Errorf("input timeout must be positive, got %v", c.InputTimeout))
	}
	return errors.Join(errs...)
}

// Generator returns the piece generator the settings describe.
func (c *Config) Generator() tetris.Generator {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec
	}
	if c.Randomizer == Bag {
		return tetris.NewBagGenerator(seed)
	}
	return tetris.NewUniformGenerator(seed)
}

// lookup treats empty variables as unset.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
