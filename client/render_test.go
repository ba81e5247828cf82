package client

import (
	"strings"
	"testing"

	"termtris/tetris"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyStack() [tetris.Height][tetris.Width]string {
	want := [tetris.Height][tetris.Width]string{}
	for y := range want {
		for x := range want[y] {
			want[y][x] = emptyCell
		}
	}
	return want
}

func TestStack(t *testing.T) {
	b := tetris.NewBoard()
	b.SetOccupied(1, 20)
	b.SetOccupied(12, 20)
	td := &templateData{
		Board:   *b,
		Current: &tetris.Piece{Kind: tetris.J, Orientation: tetris.Deg0, Origin: tetris.Point{X: 5, Y: 1}},
	}

	want := emptyStack()
	want[19][0] = frozenCell
	want[19][11] = frozenCell
	blueCell := "\x1b[7m\x1b[34m[]\x1b[0m"
	for _, p := range td.Current.Cells() {
		want[p.Y-1][p.X-1] = blueCell
	}
	assert.Equal(t, want, stack(td))

	t.Run("nil data renders empty cells", func(t *testing.T) {
		assert.Equal(t, emptyStack(), stack(nil))
	})
}

func TestNextPiece(t *testing.T) {
	td := &templateData{Next: &tetris.Piece{Kind: tetris.I, Orientation: tetris.Deg90}}
	cyanCell := "\x1b[7m\x1b[36m[]\x1b[0m"
	want := strings.Repeat(emptyCell, 2) + cyanCell + emptyCell
	assert.Equal(t, [4]string{want, want, want, want}, nextPiece(td))

	empty := strings.Repeat(emptyCell, 4)
	assert.Equal(t, [4]string{empty, empty, empty, empty}, nextPiece(&templateData{}))
}

func TestPanel(t *testing.T) {
	td := &templateData{Score: tetris.Score{Level: 3, TotalRows: 27, Points: 1450}}
	assert.Equal(t, "   NEXT"+clearLine, panel(1, td))
	assert.Equal(t, "   LEVEL  3"+clearLine, panel(8, td))
	assert.Equal(t, "   LINES  27"+clearLine, panel(9, td))
	assert.Equal(t, "   SCORE  1450"+clearLine, panel(10, td))
	assert.Equal(t, clearLine, panel(19, td))
}

func TestTemplate(t *testing.T) {
	tmpl, err := loadTemplate()
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, tmpl.Execute(&sb, &templateData{Board: *tetris.NewBoard(), Score: tetris.NewScore(1)}))
	out := sb.String()

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Len(t, lines, tetris.Height+3)
	assert.Contains(t, lines[0], "\033[1mTerminal Tetris\033[0m")
	assert.Equal(t, "   +------------------------+", lines[1])
	assert.Equal(t, lines[1], lines[len(lines)-1])
	for _, l := range lines[2 : len(lines)-1] {
		assert.True(t, strings.HasPrefix(l, "   |"+strings.Repeat(emptyCell, tetris.Width)+"|"), "row %q", l)
	}
	assert.Contains(t, out, "SCORE  0")
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
}

func TestBanner(t *testing.T) {
	got := banner(10, "PAUSED")
	assert.True(t, strings.HasPrefix(got, "\033[12;5H"))
	assert.Contains(t, got, strings.Repeat(" ", 9)+"PAUSED"+strings.Repeat(" ", 9))

	long := banner(1, strings.Repeat("x", 40))
	assert.Contains(t, long, strings.Repeat("x", tetris.Width*2)+"\x1b[0m")
}

func TestAt(t *testing.T) {
	assert.Equal(t, "\033[3;5H", at(1, 1))
	assert.Equal(t, "\033[22;27H", at(12, 20))
}

func TestSweep(t *testing.T) {
	assert.Equal(t, [][2]int{{6, 7}, {5, 8}, {4, 9}, {3, 10}, {2, 11}, {1, 12}}, sweep(true))
	assert.Equal(t, [][2]int{{1, 12}, {2, 11}, {3, 10}, {4, 9}, {5, 8}, {6, 7}}, sweep(false))
}
