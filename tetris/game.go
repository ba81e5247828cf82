package tetris

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	return &wrappedTicker{ticker: time.NewTicker(d)}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// Input is a decoded player event.
type Input string

const (
	InputTimeout    Input = "timeout" // nothing happened, lets the input loop look at the game state.
	InputInvalid    Input = "invalid" // a key with no meaning.
	InputMoveLeft   Input = "left"
	InputMoveRight  Input = "right"
	InputDrop       Input = "drop"
	InputRotateLeft Input = "rotate"
	InputPauseQuit  Input = "pause"
)

var inputActions = map[Input]Action{
	InputMoveLeft:   MoveLeft,
	InputMoveRight:  MoveRight,
	InputDrop:       DropDown,
	InputRotateLeft: RotateLeft,
}

// InputSource blocks until the next player event. Implementations should
// return InputTimeout every now and then so a finished game is noticed.
type InputSource interface {
	Next(ctx context.Context) Input
}

type Choice int

const (
	Resume Choice = iota
	Quit
)

// Presenter shows the game. Both activities call it, possibly at the same
// time, and never while holding the game lock. Calls block the calling
// activity until they return.
type Presenter interface {
	Redraw(b Board, current *Piece)
	ShowNext(k Kind, o Orientation)
	ShowScore(s Score)
	ShowLevel(level int)
	ShowClear(rows []int)
	// AskPauseQuit returns Quit when ctx is done before the player picks.
	AskPauseQuit(ctx context.Context) Choice
}

type Options struct {
	Logger *slog.Logger
	// StartLevel defaults to 1.
	StartLevel int
	// PauseGravity stops gravity while the pause dialog is open.
	PauseGravity bool
	Generator    Generator
	Ticker       Ticker
}

// Game is one session. The board, the current piece, the score and the game
// over flag are only touched while holding mu.
type Game struct {
	ID string

	presenter    Presenter
	input        InputSource
	ticker       Ticker
	gen          Generator
	logger       *slog.Logger
	pauseGravity bool

	mu       sync.Mutex
	board    *Board
	current  *Piece // nil between freezing a piece and spawning the next one.
	next     Piece
	score    Score
	interval time.Duration
	gameOver bool
	paused   bool
}

func NewGame(p Presenter, in InputSource, o *Options) *Game {
	if o == nil {
		o = &Options{}
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gen := o.Generator
	if gen == nil {
		gen = NewUniformGenerator(uint64(time.Now().UnixNano())) //nolint:gosec
	}
	ticker := o.Ticker
	if ticker == nil {
		ticker = newWrappedTicker(1 * time.Hour)
	}
	id := uuid.NewString()
	score := NewScore(o.StartLevel)
	return &Game{
		ID:           id,
		presenter:    p,
		input:        in,
		ticker:       ticker,
		gen:          gen,
		logger:       logger.With(slog.String("session", id)),
		pauseGravity: o.PauseGravity,
		board:        NewBoard(),
		next:         gen.Next(),
		score:        score,
		interval:     GravityInterval(score.Level),
	}
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Board    Board
	Current  *Piece
	Next     Piece
	Score    Score
	Interval time.Duration
	GameOver bool
}

// Read returns a copy of the current session that's safe to read concurrently.
func (g *Game) Read() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Snapshot{
		Board:    *g.board,
		Current:  g.current.copy(),
		Next:     g.next,
		Score:    g.score,
		Interval: g.interval,
		GameOver: g.gameOver,
	}
}

// Run plays the session until it's over and returns the final score. It
// returns once both gravity and input have stopped. Cancelling ctx quits the
// game. The error is non nil only when the board was corrupted.
func (g *Game) Run(ctx context.Context) (Score, error) {
	s := g.Read()
	g.logger.Info("session started", slog.Int("level", s.Score.Level), slog.Duration("interval", s.Interval))
	g.presenter.ShowNext(s.Next.Kind, s.Next.Orientation)
	g.presenter.ShowLevel(s.Score.Level)
	g.presenter.ShowScore(s.Score)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(g.guard(stop, func() error { return g.gravity(ctx) }))
	eg.Go(g.guard(stop, func() error { return g.listen(ctx) }))
	err := eg.Wait()

	s = g.Read()
	g.logger.Info("session finished",
		slog.Int("level", s.Score.Level),
		slog.Int("rows", s.Score.TotalRows),
		slog.Int("score", s.Score.Points),
	)
	return s.Score, err
}

// guard turns a board InvariantError panic into the activity's error and
// ends the session. Any other panic is not ours to handle. Whichever activity
// returns first calls stop so the other one doesn't wait for its next event.
func (g *Game) guard(stop context.CancelFunc, fn func() error) func() error {
	return func() (err error) {
		defer stop()
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			g.logger.Error("board invariant violated", slog.String("error", ie.Error()))
			g.end()
			err = ie
		}()
		return fn()
	}
}

func (g *Game) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gameOver = true
}

// turn is what one locked step of an activity leaves for the presenter.
type turn struct {
	redraw   bool
	board    Board
	current  *Piece
	spawned  bool
	next     Piece
	cleared  []int
	score    *Score
	levelUp  bool
	interval time.Duration
}

func (g *Game) gravity(ctx context.Context) error {
	g.mu.Lock()
	d := g.interval
	g.mu.Unlock()
	g.ticker.Reset(d)
	defer g.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.end()
			return nil
		case <-g.ticker.C():
		}
		t, ok := g.fall()
		if !ok {
			return nil
		}
		g.show(t)
		// the next tick is counted from the end of this turn, animations included.
		g.ticker.Reset(t.interval)
	}
}

// fall is one gravity step: spawn a piece, move it down, or freeze it and
// clear the rows it completed. It reports false once the game is over.
func (g *Game) fall() (turn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gameOver {
		return turn{}, false
	}
	t := turn{interval: g.interval}
	if g.paused {
		return t, true
	}

	if g.current == nil {
		if !g.spawn() {
			return turn{}, false
		}
		t.spawned = true
		t.next = g.next
	} else if p, ok := g.board.Attempt(*g.current, MoveDown); ok {
		g.current = &p
	} else {
		g.board.Freeze(*g.current)
		g.current = nil
		t.cleared = g.board.ClearLines()
		if len(t.cleared) > 0 {
			g.scoreRows(&t)
		}
	}

	t.redraw = true
	t.board = *g.board
	t.current = g.current.copy()
	return t, true
}

func (g *Game) spawn() bool {
	p, ok := g.board.SpawnAt(g.next, SpawnOrigin)
	g.next = g.gen.Next()
	if !ok {
		g.gameOver = true
		g.logger.Info("spawn blocked, game over", slog.String("kind", p.Kind.String()))
		return false
	}
	g.current = &p
	g.logger.Debug("spawned", slog.String("kind", p.Kind.String()), slog.Int("orientation", int(p.Orientation)))
	return true
}

func (g *Game) scoreRows(t *turn) {
	var levelUp bool
	g.score, levelUp = g.score.Apply(len(t.cleared))
	g.logger.Info("rows cleared", slog.Any("rows", t.cleared), slog.Int("score", g.score.Points))
	if levelUp {
		g.interval = GravityInterval(g.score.Level)
		t.interval = g.interval
		g.logger.Info("level up", slog.Int("level", g.score.Level), slog.Duration("interval", g.interval))
	}
	s := g.score
	t.score = &s
	t.levelUp = levelUp
}

func (g *Game) show(t turn) {
	if !t.redraw {
		return
	}
	if len(t.cleared) > 0 {
		g.presenter.ShowClear(t.cleared)
	}
	if t.score != nil {
		g.presenter.ShowScore(*t.score)
		if t.levelUp {
			g.presenter.Redraw(t.board, t.current)
			g.presenter.ShowLevel(t.score.Level)
		}
	}
	if t.spawned {
		g.presenter.ShowNext(t.next.Kind, t.next.Orientation)
	}
	g.presenter.Redraw(t.board, t.current)
}

func (g *Game) listen(ctx context.Context) error {
	for {
		in := g.input.Next(ctx)
		if ctx.Err() != nil {
			g.end()
			return nil
		}
		switch in {
		case InputInvalid:
			continue
		case InputPauseQuit:
			if !g.pause(ctx) {
				return nil
			}
			continue
		}
		t, ok := g.move(in)
		if !ok {
			return nil
		}
		if t.redraw {
			g.presenter.Redraw(t.board, t.current)
		}
	}
}

// move applies a player input to the current piece. It reports false once the
// game is over.
func (g *Game) move(in Input) (turn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gameOver {
		return turn{}, false
	}
	a, ok := inputActions[in]
	if !ok || g.current == nil {
		return turn{}, true
	}
	p, ok := g.board.Attempt(*g.current, a)
	if !ok {
		return turn{}, true
	}
	g.current = &p
	return turn{redraw: true, board: *g.board, current: g.current.copy()}, true
}

// pause shows the quit dialog and reports whether the game goes on.
func (g *Game) pause(ctx context.Context) bool {
	g.mu.Lock()
	if g.gameOver {
		g.mu.Unlock()
		return false
	}
	g.paused = g.pauseGravity
	g.mu.Unlock()

	choice := g.presenter.AskPauseQuit(ctx)

	g.mu.Lock()
	g.paused = false
	if choice == Quit {
		g.gameOver = true
		g.logger.Info("player quit")
	}
	over := g.gameOver
	b, cur := *g.board, g.current.copy()
	g.mu.Unlock()

	g.presenter.Redraw(b, cur)
	return !over
}
