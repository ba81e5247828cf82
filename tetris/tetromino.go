package tetris

import (
	"math/rand/v2"
	"sync"
)

// Kind is one of the seven tetrominoes.
type Kind int

const (
	O Kind = iota // square
	I             // line
	T             // tee
	Z
	S
	L
	J
)

const kindCount = 7

var kindNames = [kindCount]string{"O", "I", "T", "Z", "S", "L", "J"}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "?"
	}
	return kindNames[k]
}

// Kinds returns every Kind in catalogue order.
func Kinds() []Kind {
	return []Kind{O, I, T, Z, S, L, J}
}

// Orientation is one of the four rotation states. It wraps around.
type Orientation int

const (
	Deg0 Orientation = iota
	Deg90
	Deg180
	Deg270
)

const orientationCount = 4

// Left returns the orientation one counter-clockwise step before o.
func (o Orientation) Left() Orientation {
	return (o + orientationCount - 1) % orientationCount
}

// Point is a cell coordinate. X grows to the right, Y grows downwards.
type Point struct {
	X, Y int
}

func (p Point) add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Shape holds the four cell offsets of a piece relative to its origin.
type Shape [4]Point

// shapes is the rotation system. Rotating does not transform geometry, it only
// picks the next entry, so O, I, Z and S repeat their offsets across slots.
//
//	Deg0 of each kind, origin at the top-left corner of a 4x4 box:
//
//	O         I         T         Z         S         L         J
//	. . . .   . . . .   . . O .   . . O .   . O . .   . O . .   . . O .
//	. O O .   O O O O   . O O O   . O O .   . O O .   . O . .   . . O .
//	. O O .   . . . .   . . . .   . O . .   . . O .   . O O .   . O O .
var shapes = [kindCount][orientationCount]Shape{
	O: {
		{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
		{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
		{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
		{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
	},
	I: {
		{{0, 1}, {1, 1}, {2, 1}, {3, 1}},
		{{2, 0}, {2, 1}, {2, 2}, {2, 3}},
		{{0, 1}, {1, 1}, {2, 1}, {3, 1}},
		{{2, 0}, {2, 1}, {2, 2}, {2, 3}},
	},
	T: {
		{{2, 0}, {1, 1}, {2, 1}, {3, 1}},
		{{2, 0}, {2, 1}, {2, 2}, {3, 1}},
		{{2, 2}, {1, 1}, {2, 1}, {3, 1}},
		{{2, 0}, {2, 1}, {2, 2}, {1, 1}},
	},
	Z: {
		{{2, 0}, {1, 1}, {2, 1}, {1, 2}},
		{{1, 1}, {2, 1}, {2, 2}, {3, 2}},
		{{2, 0}, {1, 1}, {2, 1}, {1, 2}},
		{{1, 1}, {2, 1}, {2, 2}, {3, 2}},
	},
	S: {
		{{1, 0}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 1}, {2, 1}, {0, 2}, {1, 2}},
		{{1, 0}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 1}, {2, 1}, {0, 2}, {1, 2}},
	},
	L: {
		{{1, 0}, {1, 1}, {1, 2}, {2, 2}},
		{{1, 1}, {2, 1}, {3, 1}, {1, 2}},
		{{1, 0}, {2, 0}, {2, 1}, {2, 2}},
		{{2, 0}, {0, 1}, {1, 1}, {2, 1}},
	},
	J: {
		{{2, 0}, {2, 1}, {2, 2}, {1, 2}},
		{{1, 0}, {1, 1}, {2, 1}, {3, 1}},
		{{1, 0}, {2, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {2, 2}},
	},
}

// Offsets returns the cell offsets for kind k in orientation o.
func Offsets(k Kind, o Orientation) Shape {
	return shapes[k][o]
}

// Piece is a tetromino placed on the board.
type Piece struct {
	Kind        Kind
	Orientation Orientation
	Origin      Point
}

// Cells returns the board cells covered by the piece.
func (p Piece) Cells() [4]Point {
	var c [4]Point
	for i, off := range shapes[p.Kind][p.Orientation] {
		c[i] = p.Origin.add(off)
	}
	return c
}

func (p *Piece) copy() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Generator produces the stream of upcoming pieces. Only Kind and
// Orientation of the returned piece are meaningful.
type Generator interface {
	Next() Piece
}

type uniform struct {
	rnd *rand.Rand
	mu  sync.Mutex
}

// NewUniformGenerator draws kind and orientation independently and uniformly.
func NewUniformGenerator(seed uint64) Generator {
	return &uniform{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (u *uniform) Next() Piece {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Piece{
		Kind:        Kind(u.rnd.IntN(kindCount)),
		Orientation: Orientation(u.rnd.IntN(orientationCount)),
	}
}

type bag struct {
	rnd *rand.Rand
	bag []Kind
	mu  sync.Mutex
}

// NewBagGenerator deals kinds from a shuffled bag of all seven, refilled when
// empty. Orientations stay uniform.
func NewBagGenerator(seed uint64) Generator {
	return &bag{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (b *bag) draw() Kind {
	if len(b.bag) == 0 {
		b.bag = Kinds()
		b.rnd.Shuffle(len(b.bag), func(i, j int) { b.bag[i], b.bag[j] = b.bag[j], b.bag[i] })
	}
	k := b.bag[0]
	b.bag = b.bag[1:]
	return k
}

func (b *bag) Next() Piece {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Piece{Kind: b.draw(), Orientation: Orientation(b.rnd.IntN(orientationCount))}
}
