package tetris

import "time"

const (
	MaxLevel = 25

	baseScorePerRow = 10
	rowsPerLevel    = 10
	initialInterval = 1000 * time.Millisecond
)

type Score struct {
	Level       int
	RowsCleared int // rows cleared since the level started
	TotalRows   int
	Points      int
}

func NewScore(level int) Score {
	return Score{Level: clampLevel(level)}
}

// Apply adds rows cleared by one piece. Points grow with the square of the
// rows cleared at once, multiplied by the level. Reaching rowsPerLevel within a
// level advances it and restarts the in-level counter.
func (s Score) Apply(rows int) (Score, bool) {
	if rows <= 0 {
		return s, false
	}
	s.Points += s.Level * rows * rows * baseScorePerRow
	s.TotalRows += rows
	s.RowsCleared += rows
	if s.RowsCleared < rowsPerLevel {
		return s, false
	}
	s.Level++
	s.RowsCleared = 0
	return s, true
}

// levelDelta is how much faster gravity gets when leaving level. The steps
// shrink as the level rises.
func levelDelta(level int) time.Duration {
	return time.Duration((MaxLevel-level+1)*3) * time.Millisecond
}

// GravityInterval returns the time between gravity ticks at level.
//
// Every level below MaxLevel takes levelDelta off the previous interval, so it
// never increases, and levels past MaxLevel keep the MaxLevel interval.
//
//	level	1	2	3	...	24	25+
//	ms	1000	925	853	...	34	28
func GravityInterval(level int) time.Duration {
	d := initialInterval
	for l := 1; l < clampLevel(level); l++ {
		d -= levelDelta(l)
	}
	return d
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > MaxLevel:
		return MaxLevel
	}
	return level
}
