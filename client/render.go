package client

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"termtris/tetris"
)

const (
	// ASCII colors.
	Cyan    = "36"
	Blue    = "34"
	Orange  = "38;5;214"
	Yellow  = "33"
	Green   = "32"
	Red     = "31"
	Magenta = "35"
	White   = "37"

	resetPos  = "\033[H" // Reset cursor position to 0,0
	clearLine = "\033[K" // Erase to the end of the line
	emptyCell = "  "

	// Screen position of the frame, 1 based. Playfield cell (x, y) is drawn
	// at line boardTop+y, column boardLeft+2x-1.
	boardTop  = 2
	boardLeft = 4
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[tetris.Kind]string{
	tetris.I: Cyan,
	tetris.J: Blue,
	tetris.L: Orange,
	tetris.O: Yellow,
	tetris.S: Green,
	tetris.Z: Red,
	tetris.T: Magenta,
}

// the frozen stack doesn't remember which piece each cell came from.
var frozenCell = cell(White)

type templateData struct {
	Board   tetris.Board
	Current *tetris.Piece
	Next    *tetris.Piece
	Score   tetris.Score
}

func loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"stack": stack,
		"panel": panel,
	}

	// the keyboard puts the console in raw mode so new lines don't carriage
	// return, we add one to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Terminal Tetris", "\033[1mTerminal Tetris\033[0m")
	return template.New("layout").Funcs(funcMap).Parse(l)
}

func cell(color string) string {
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", color)
}

// stack renders the playfield, current piece included. Index [0][0] is
// playfield cell (1, 1).
func stack(t *templateData) [tetris.Height][tetris.Width]string {
	rendered := [tetris.Height][tetris.Width]string{}
	for y := range tetris.Height {
		for x := range tetris.Width {
			out := emptyCell
			if t != nil && t.Board.Cell(x+1, y+1) == tetris.Occupied {
				out = frozenCell
			}
			rendered[y][x] = out
		}
	}
	if t == nil || t.Current == nil {
		return rendered
	}
	c := cell(colorMap[t.Current.Kind])
	for _, p := range t.Current.Cells() {
		if p.X < 1 || p.X > tetris.Width || p.Y < 1 || p.Y > tetris.Height {
			continue
		}
		rendered[p.Y-1][p.X-1] = c
	}
	return rendered
}

// nextPiece renders the preview inside its 4x4 box.
func nextPiece(t *templateData) [4]string {
	rows := [4][4]string{}
	for y := range rows {
		for x := range rows[y] {
			rows[y][x] = emptyCell
		}
	}
	if t != nil && t.Next != nil {
		c := cell(colorMap[t.Next.Kind])
		for _, p := range tetris.Offsets(t.Next.Kind, t.Next.Orientation) {
			rows[p.Y][p.X] = c
		}
	}
	var rendered [4]string
	for y := range rows {
		rendered[y] = strings.Join(rows[y][:], "")
	}
	return rendered
}

// panel is the text to the right of playfield row y, 0 based.
func panel(y int, t *templateData) string {
	var out string
	switch {
	case y == 1:
		out = "NEXT"
	case y >= 2 && y <= 5:
		out = nextPiece(t)[y-2]
	case y == 8:
		out = fmt.Sprintf("LEVEL  %d", t.Score.Level)
	case y == 9:
		out = fmt.Sprintf("LINES  %d", t.Score.TotalRows)
	case y == 10:
		out = fmt.Sprintf("SCORE  %d", t.Score.Points)
	case y == 13:
		out = "<- ->  a d    move"
	case y == 14:
		out = "up     w      rotate"
	case y == 15:
		out = "down   space  drop"
	case y == 16:
		out = "q             pause"
	}
	if out == "" {
		return clearLine
	}
	return "   " + out + clearLine
}

// at moves the cursor to playfield cell (x, y).
func at(x, y int) string {
	return fmt.Sprintf("\033[%d;%dH", boardTop+y, boardLeft+2*x-1)
}

// banner writes text centered on playfield row y.
func banner(y int, text string) string {
	w := tetris.Width * 2
	if len(text) > w {
		text = text[:w]
	}
	left := (w - len(text)) / 2
	return fmt.Sprintf("\033[%d;%dH\x1b[7m%s%s%s\x1b[0m",
		boardTop+y, boardLeft+1,
		strings.Repeat(" ", left), text, strings.Repeat(" ", w-left-len(text)))
}

// sweep returns the columns blanked at each step of the line clear animation,
// opening from the center or closing from the walls.
func sweep(fromCenter bool) [][2]int {
	steps := make([][2]int, 0, tetris.Width/2)
	for s := range tetris.Width / 2 {
		if fromCenter {
			steps = append(steps, [2]int{tetris.Width/2 - s, tetris.Width/2 + 1 + s})
		} else {
			steps = append(steps, [2]int{1 + s, tetris.Width - s})
		}
	}
	return steps
}
