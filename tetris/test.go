package tetris

import (
	"context"
	"sync"
	"time"
)

const mockWait = 2 * time.Second

// MockTicker is a manual Ticker. The first Reset arms it; every later Reset or
// Stop marks the end of the gravity turn that the last Tick started.
type MockTicker struct {
	ch    chan time.Time
	turn  chan struct{}
	armed chan struct{}

	mu      sync.Mutex
	d       time.Duration
	resets  int
	stopped bool
}

func NewMockTicker() *MockTicker {
	return &MockTicker{
		ch:    make(chan time.Time),
		turn:  make(chan struct{}, 1),
		armed: make(chan struct{}),
	}
}

func (m *MockTicker) C() <-chan time.Time { return m.ch }

func (m *MockTicker) Reset(d time.Duration) {
	m.mu.Lock()
	m.d = d
	m.resets++
	first := m.resets == 1
	m.mu.Unlock()
	if first {
		close(m.armed)
		return
	}
	m.done()
}

func (m *MockTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.done()
}

func (m *MockTicker) done() {
	select {
	case m.turn <- struct{}{}:
	default:
	}
}

// Tick fires once and waits for the gravity turn to finish. It reports false
// if nothing was listening.
func (m *MockTicker) Tick() bool {
	select {
	case <-m.armed:
	case <-time.After(mockWait):
		return false
	}
	select {
	case m.ch <- time.Now():
	case <-time.After(mockWait):
		return false
	}
	<-m.turn
	return true
}

// Interval returns the duration of the last Reset.
func (m *MockTicker) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d
}

func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// ChanInput is an InputSource fed by a channel.
type ChanInput chan Input

func (c ChanInput) Next(ctx context.Context) Input {
	select {
	case in, ok := <-c:
		if ok {
			return in
		}
		<-ctx.Done()
	case <-ctx.Done():
	}
	return InputTimeout
}

// Send delivers in and waits until the input loop asks for the next event, so
// in has been handled when it returns true.
func (c ChanInput) Send(in Input) bool {
	for _, v := range []Input{in, InputTimeout} {
		select {
		case c <- v:
		case <-time.After(mockWait):
			return false
		}
	}
	return true
}

// FixedGenerator deals Pieces in order, starting over at the end.
type FixedGenerator struct {
	Pieces []Piece

	i  int
	mu sync.Mutex
}

func (f *FixedGenerator) Next() Piece {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Pieces) == 0 {
		return Piece{Kind: O}
	}
	p := f.Pieces[f.i%len(f.Pieces)]
	f.i++
	return p
}

// RecordingPresenter keeps every call it gets. AskPauseQuit blocks until a
// Choice is sent on Choices or its context is done.
type RecordingPresenter struct {
	Choices chan Choice

	asking  chan struct{}
	mu      sync.Mutex
	redraws int
	board   Board
	current *Piece
	nexts   []Piece
	scores  []Score
	levels  []int
	clears  [][]int
}

func NewRecordingPresenter() *RecordingPresenter {
	return &RecordingPresenter{
		Choices: make(chan Choice),
		asking:  make(chan struct{}, 1),
	}
}

func (r *RecordingPresenter) Redraw(b Board, current *Piece) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redraws++
	r.board = b
	r.current = current.copy()
}

func (r *RecordingPresenter) ShowNext(k Kind, o Orientation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nexts = append(r.nexts, Piece{Kind: k, Orientation: o})
}

func (r *RecordingPresenter) ShowScore(s Score) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, s)
}

func (r *RecordingPresenter) ShowLevel(level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
}

func (r *RecordingPresenter) ShowClear(rows []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears = append(r.clears, append([]int(nil), rows...))
}

func (r *RecordingPresenter) AskPauseQuit(ctx context.Context) Choice {
	r.asking <- struct{}{}
	select {
	case c := <-r.Choices:
		return c
	case <-ctx.Done():
		return Quit
	}
}

// Asking fires every time AskPauseQuit is entered.
func (r *RecordingPresenter) Asking() <-chan struct{} { return r.asking }

func (r *RecordingPresenter) Redraws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redraws
}

// Last returns the arguments of the last Redraw.
func (r *RecordingPresenter) Last() (Board, *Piece) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board, r.current.copy()
}

func (r *RecordingPresenter) Nexts() []Piece {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Piece(nil), r.nexts...)
}

func (r *RecordingPresenter) Scores() []Score {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Score(nil), r.scores...)
}

func (r *RecordingPresenter) Levels() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.levels...)
}

func (r *RecordingPresenter) Clears() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.clears...)
}

// NewTestGame creates a game on board b (a new one when nil) that deals
// pieces in order, and returns it with its manual ticker, presenter and input.
func NewTestGame(b *Board, pieces ...Piece) (*Game, *MockTicker, *RecordingPresenter, ChanInput) {
	ticker := NewMockTicker()
	p := NewRecordingPresenter()
	in := make(ChanInput)
	g := NewGame(p, in, &Options{
		Generator: &FixedGenerator{Pieces: pieces},
		Ticker:    ticker,
	})
	if b != nil {
		g.board = b
	}
	return g, ticker, p, in
}
