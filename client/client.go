// Package client is the terminal front end: it draws the game with ANSI escape
// codes and turns key presses into game input.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"termtris/tetris"

	"github.com/eiannone/keyboard"
)

const (
	clearPause = 300 * time.Millisecond
	clearStep  = 30 * time.Millisecond
	levelPause = 1500 * time.Millisecond
)

// Client implements tetris.Presenter and tetris.InputSource on a terminal.
type Client struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
	kbCh     <-chan keyboard.KeyEvent
	timeout  time.Duration

	clearPause time.Duration
	clearStep  time.Duration
	levelPause time.Duration

	// mu serializes drawing, gravity and input both draw.
	mu     sync.Mutex
	td     *templateData
	clears int
}

type Options struct {
	Writer io.Writer
	Logger *slog.Logger
	// InputTimeout is the longest Next waits for a key.
	InputTimeout time.Duration
	// NoAnimation skips the line clear sweep and the level banner pause.
	NoAnimation bool
}

// New opens the keyboard. Close releases it.
func New(o *Options) (*Client, error) {
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	c, err := newClient(kb, o)
	if err != nil {
		keyboard.Close() //nolint:errcheck
		return nil, err
	}
	return c, nil
}

func newClient(kb <-chan keyboard.KeyEvent, o *Options) (*Client, error) {
	if o == nil {
		o = &Options{}
	}
	tmp, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	c := &Client{
		writer:     o.Writer,
		logger:     o.Logger,
		template:   tmp,
		kbCh:       kb,
		timeout:    o.InputTimeout,
		clearPause: clearPause,
		clearStep:  clearStep,
		levelPause: levelPause,
		td:         &templateData{Board: *tetris.NewBoard(), Score: tetris.NewScore(1)},
	}
	if c.writer == nil {
		c.writer = os.Stdout
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.timeout <= 0 {
		c.timeout = time.Second
	}
	if o.NoAnimation {
		c.clearPause, c.clearStep, c.levelPause = 0, 0, 0
	}
	return c, nil
}

func (c *Client) Close() {
	keyboard.Close() //nolint:errcheck
}

// Next waits for a key until ctx is done or the input timeout runs out.
func (c *Client) Next(ctx context.Context) tetris.Input {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return tetris.InputTimeout
	case <-timer.C:
		return tetris.InputTimeout
	case event, ok := <-c.kbCh:
		if !ok {
			// the dialog reads the closed channel too and quits.
			c.logger.Error("keyboard events channel closed unexpectedly")
			return tetris.InputPauseQuit
		}
		if event.Err != nil {
			c.logger.Error("keyboard event error", slog.String("error", event.Err.Error()))
			return tetris.InputInvalid
		}
		return decode(event)
	}
}

func decode(event keyboard.KeyEvent) tetris.Input {
	switch {
	case event.Key == keyboard.KeyArrowLeft || event.Rune == 'a':
		return tetris.InputMoveLeft
	case event.Key == keyboard.KeyArrowRight || event.Rune == 'd':
		return tetris.InputMoveRight
	case event.Key == keyboard.KeyArrowDown || event.Key == keyboard.KeySpace || event.Rune == 's':
		return tetris.InputDrop
	case event.Key == keyboard.KeyArrowUp || event.Rune == 'w':
		return tetris.InputRotateLeft
	case event.Key == keyboard.KeyCtrlC || event.Key == keyboard.KeyEsc || event.Rune == 'q' || event.Rune == 'Q':
		return tetris.InputPauseQuit
	}
	return tetris.InputInvalid
}

func (c *Client) Redraw(b tetris.Board, current *tetris.Piece) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.td.Board = b
	c.td.Current = current
	c.render()
}

func (c *Client) ShowNext(k tetris.Kind, o tetris.Orientation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.td.Next = &tetris.Piece{Kind: k, Orientation: o}
	c.render()
}

func (c *Client) ShowScore(s tetris.Score) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.td.Score = s
	c.render()
}

// ShowLevel puts a banner over the playfield and holds it for a moment. The
// next redraw removes it.
func (c *Client) ShowLevel(level int) {
	c.mu.Lock()
	c.print(banner(tetris.Height/2, fmt.Sprintf("LEVEL %d", level)))
	c.mu.Unlock()
	time.Sleep(c.levelPause)
}

// ShowClear sweeps the cleared rows off the screen. Every row of one clear
// goes the same way, and the way flips from one clear to the next: the first
// closes from the walls, the second opens from the center.
func (c *Client) ShowClear(rows []int) {
	c.mu.Lock()
	c.clears++
	fromCenter := c.clears%2 == 0
	c.mu.Unlock()
	if c.clearStep == 0 && c.clearPause == 0 {
		return
	}
	time.Sleep(c.clearPause)
	for _, cols := range sweep(fromCenter) {
		var sb strings.Builder
		for _, y := range rows {
			sb.WriteString(at(cols[0], y) + emptyCell)
			sb.WriteString(at(cols[1], y) + emptyCell)
		}
		c.mu.Lock()
		c.print(sb.String())
		c.mu.Unlock()
		time.Sleep(c.clearStep)
	}
}

// AskPauseQuit shows the pause dialog and reads keys until the player picks.
// RESUME is selected to begin with. A done ctx answers QUIT.
func (c *Client) AskPauseQuit(ctx context.Context) tetris.Choice {
	choice := tetris.Resume
	for {
		c.mu.Lock()
		c.print(dialog(choice))
		c.mu.Unlock()

		var event keyboard.KeyEvent
		var ok bool
		select {
		case <-ctx.Done():
			return tetris.Quit
		case event, ok = <-c.kbCh:
		}
		if !ok {
			c.logger.Error("keyboard events channel closed unexpectedly")
			return tetris.Quit
		}
		switch {
		case event.Err != nil:
			c.logger.Error("keyboard event error", slog.String("error", event.Err.Error()))
		case event.Key == keyboard.KeyCtrlC:
			return tetris.Quit
		case event.Key == keyboard.KeyArrowLeft || event.Rune == 'a':
			choice = tetris.Quit
		case event.Key == keyboard.KeyArrowRight || event.Rune == 'd':
			choice = tetris.Resume
		case event.Key == keyboard.KeyEnter || event.Key == keyboard.KeySpace:
			return choice
		}
	}
}

// ShowGameOver writes the final score over the playfield.
func (c *Client) ShowGameOver(s tetris.Score) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.print(banner(tetris.Height/2-1, "GAME OVER") +
		banner(tetris.Height/2, fmt.Sprintf("SCORE %d", s.Points)) +
		banner(tetris.Height/2+1, fmt.Sprintf("LEVEL %d  LINES %d", s.Level, s.TotalRows)))
}

func dialog(choice tetris.Choice) string {
	quit, resume := "  QUIT  ", " RESUME "
	if choice == tetris.Quit {
		quit = "[ QUIT ]"
	} else {
		resume = "[RESUME]"
	}
	return banner(tetris.Height/2-1, "") +
		banner(tetris.Height/2, "PAUSED") +
		banner(tetris.Height/2+1, quit+"  "+resume) +
		banner(tetris.Height/2+2, "")
}

// render draws the whole screen. Callers hold mu.
func (c *Client) render() {
	fmt.Fprint(c.writer, resetPos)
	if err := c.template.Execute(c.writer, c.td); err != nil {
		c.logger.Error("unable to execute template", slog.String("error", err.Error()))
	}
}

// print writes escape sequences. Callers hold mu.
func (c *Client) print(s string) {
	fmt.Fprint(c.writer, s)
}
