// Package tetris contains the rules of the game and the two activities,
// gravity and player input, that drive them.
package tetris

import (
	"fmt"
	"strings"
)

const (
	// Playfield size, not counting the border.
	Width  = 12
	Height = 20

	maxClearedRows = 4
)

// SpawnOrigin is where new pieces are placed: playfield column 4, row 0.
var SpawnOrigin = Point{X: 5, Y: 1}

type Action string

const (
	MoveLeft   Action = "left"      // Moves the piece one step to the left.
	MoveRight  Action = "right"     // Moves the piece one step to the right.
	MoveDown   Action = "down"      // Moves the piece one step down.
	DropDown   Action = "drop"      // Moves the piece down until the next step would collide.
	RotateLeft Action = "rotateccw" // Steps the orientation counter-clockwise.
)

type Cell uint8

const (
	Empty Cell = iota
	Occupied
	Border
)

// InvariantError reports board corruption: the rules produced a state they
// should never reach. The board panics with it.
type InvariantError struct {
	Op   string
	X, Y int
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tetris: invariant violated in %s at (%d,%d): %s", e.Op, e.X, e.Y, e.Msg)
}

// Board is the playfield surrounded by a one cell Border frame.
//
//	.	  0 1 2 ... 12 13
//	0	  # # # ... #  #
//	1	  # . . ... .  #
//	..
//	20	  # . . ... .  #
//	21	  # # # ... #  #
//
// Columns 1 > 12 left to right are the X axis, rows 1 > 20 top to bottom are
// the Y axis. Collision tests go through IsOccupied so the frame rejects
// out of bounds placements without special cases.
type Board struct {
	cells [Height + 2][Width + 2]Cell
	// top is the nearest fully empty row above the stack, counting from the
	// bottom. 0 when the stack reaches row 1.
	top int
}

func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// Reset empties the playfield and rebuilds the frame.
func (b *Board) Reset() {
	for y := range b.cells {
		for x := range b.cells[y] {
			if y == 0 || y == Height+1 || x == 0 || x == Width+1 {
				b.cells[y][x] = Border
			} else {
				b.cells[y][x] = Empty
			}
		}
	}
	b.top = Height
}

// Cell returns the content at (x, y). Anything outside the array reads as Border.
func (b *Board) Cell(x, y int) Cell {
	if y < 0 || y >= len(b.cells) || x < 0 || x >= len(b.cells[y]) {
		return Border
	}
	return b.cells[y][x]
}

func (b *Board) IsOccupied(x, y int) bool {
	return b.Cell(x, y) != Empty
}

// SetOccupied marks an empty playfield cell as occupied. Marking anything else
// means the collision tests let a piece overlap the stack, so it panics.
func (b *Board) SetOccupied(x, y int) {
	if b.Cell(x, y) != Empty {
		panic(&InvariantError{Op: "SetOccupied", X: x, Y: y, Msg: "cell is not empty"})
	}
	b.cells[y][x] = Occupied
}

// RowIsFull reports whether every playfield cell in row is occupied.
func (b *Board) RowIsFull(row int) bool {
	if row < 1 || row > Height {
		return false
	}
	for x := 1; x <= Width; x++ {
		if b.cells[row][x] != Occupied {
			return false
		}
	}
	return true
}

func (b *Board) rowIsEmpty(row int) bool {
	for x := 1; x <= Width; x++ {
		if b.cells[row][x] != Empty {
			return false
		}
	}
	return true
}

// ClearRowAndCompact drops row and shifts every row above it down by one.
// Row 1 ends up empty. The frame is left untouched.
func (b *Board) ClearRowAndCompact(row int) {
	if row < 1 || row > Height {
		return
	}
	for y := row; y > 1; y-- {
		b.cells[y] = b.cells[y-1]
	}
	for x := 1; x <= Width; x++ {
		b.cells[1][x] = Empty
	}
	b.updateTop()
}

// HighestOccupiedRow returns the nearest fully empty row above the stack.
// Rows below it hold the stack; line clearing never looks above it.
func (b *Board) HighestOccupiedRow() int {
	return b.top
}

func (b *Board) updateTop() {
	for y := Height; y > 0; y-- {
		if b.rowIsEmpty(y) {
			b.top = y
			return
		}
	}
	b.top = 0
}

func (b *Board) fits(p Piece) bool {
	for _, c := range p.Cells() {
		if b.IsOccupied(c.X, c.Y) {
			return false
		}
	}
	return true
}

// Attempt applies a to a copy of p and returns the copy when all of its cells
// are free. Otherwise it returns p unchanged and false. Rotations never kick.
func (b *Board) Attempt(p Piece, a Action) (Piece, bool) {
	c := p
	switch a {
	case MoveLeft:
		c.Origin.X--
	case MoveRight:
		c.Origin.X++
	case MoveDown:
		c.Origin.Y++
	case RotateLeft:
		c.Orientation = c.Orientation.Left()
	case DropDown:
		// the bottom frame row always stops the loop.
		for b.fits(c) {
			c.Origin.Y++
		}
		c.Origin.Y--
	default:
		return p, false
	}
	if !b.fits(c) {
		return p, false
	}
	return c, true
}

// SpawnAt places p at origin. It fails when the stack covers any of the cells.
func (b *Board) SpawnAt(p Piece, origin Point) (Piece, bool) {
	c := p
	c.Origin = origin
	if !b.fits(c) {
		return p, false
	}
	return c, true
}

// Freeze writes the cells of p into the board.
func (b *Board) Freeze(p Piece) {
	for _, c := range p.Cells() {
		b.SetOccupied(c.X, c.Y)
	}
	b.updateTop()
}

// ClearLines removes every full row, bottom up, and returns the rows removed
// as they were numbered before any compaction. After a removal the scan stays
// on the same row, since the row above has just slid into it.
func (b *Board) ClearLines() []int {
	var rows []int
	for abs, y := Height, Height; y > b.top; abs-- {
		if !b.RowIsFull(y) {
			y--
			continue
		}
		rows = append(rows, abs)
		if len(rows) > maxClearedRows {
			panic(&InvariantError{Op: "ClearLines", Y: abs, Msg: fmt.Sprintf("more than %d full rows", maxClearedRows)})
		}
		b.ClearRowAndCompact(y)
		if b.top < 1 || b.top > Height {
			panic(&InvariantError{Op: "ClearLines", Y: y, Msg: fmt.Sprintf("no empty row above the stack (top %d)", b.top)})
		}
	}
	return rows
}

// String draws the board, frame included, one line per row.
func (b *Board) String() string {
	var sb strings.Builder
	for y := range b.cells {
		for _, c := range b.cells[y] {
			switch c {
			case Border:
				sb.WriteByte('#')
			case Occupied:
				sb.WriteByte('X')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
