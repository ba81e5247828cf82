package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"termtris/client"
	"termtris/config"
	"termtris/tetris"

	"golang.org/x/term"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[24;1H\r\n\033[?25h"

	minWidth  = 80
	minHeight = 24

	gameOverPause = 2 * time.Second
)

func main() {
	score, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tetris: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Game over: level %d, %d lines, %d points\n", score.Level, score.TotalRows, score.Points)
}

func run() (tetris.Score, error) {
	cfg, err := config.Load()
	if err != nil {
		return tetris.Score{}, fmt.Errorf("unable to load config: %w", err)
	}
	randomizer := string(cfg.Randomizer)
	flag.IntVar(&cfg.StartLevel, "level", cfg.StartLevel, "starting level, 1 to 25")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "piece generator seed, 0 picks one from the clock")
	flag.StringVar(&randomizer, "randomizer", randomizer, "piece generator, uniform or bag")
	flag.BoolVar(&cfg.PauseGravity, "pause-gravity", cfg.PauseGravity, "stop gravity while the pause dialog is open")
	flag.BoolVar(&cfg.NoAnimation, "no-animation", cfg.NoAnimation, "skip the line clear and level up animations")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "write JSON logs to this file")
	flag.Parse()
	cfg.Randomizer = config.Randomizer(randomizer)
	if err := cfg.Validate(); err != nil {
		return tetris.Score{}, err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return tetris.Score{}, err
	}
	defer closeLog()

	if err := checkTerminal(int(os.Stdout.Fd())); err != nil { //nolint:gosec
		return tetris.Score{}, err
	}

	cl, err := client.New(&client.Options{
		Logger:       logger,
		InputTimeout: cfg.InputTimeout,
		NoAnimation:  cfg.NoAnimation,
	})
	if err != nil {
		return tetris.Score{}, err
	}
	defer cl.Close()
	fmt.Print(hideCursor)
	defer fmt.Print(showCursor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game := tetris.NewGame(cl, cl, &tetris.Options{
		Logger:       logger,
		StartLevel:   cfg.StartLevel,
		PauseGravity: cfg.PauseGravity,
		Generator:    cfg.Generator(),
	})
	score, err := game.Run(ctx)
	if err != nil {
		return score, err
	}
	cl.ShowGameOver(score)
	select {
	case <-ctx.Done():
	case <-time.After(gameOverPause):
	}
	return score, nil
}

// newLogger writes JSON logs to the configured file. The terminal belongs to
// the game, so without a file logs are discarded.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return logger, func() { f.Close() }, nil //nolint:errcheck
}

func checkTerminal(fd int) error {
	if !term.IsTerminal(fd) {
		return errors.New("stdout is not a terminal")
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("unable to read the terminal size: %w", err)
	}
	if w < minWidth || h < minHeight {
		return fmt.Errorf("the terminal is %dx%d, it needs to be at least %dx%d", w, h, minWidth, minHeight)
	}
	return nil
}
