package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsets(t *testing.T) {
	t.Run("every shape has four distinct cells inside a 4x4 box", func(t *testing.T) {
		for _, k := range Kinds() {
			for o := Deg0; o <= Deg270; o++ {
				seen := make(map[Point]bool)
				for _, p := range Offsets(k, o) {
					assert.True(t, p.X >= 0 && p.X < 4 && p.Y >= 0 && p.Y < 4, "%v %d: %v out of the box", k, o, p)
					seen[p] = true
				}
				assert.Len(t, seen, 4, "%v %d", k, o)
			}
		}
	})

	t.Run("table entries", func(t *testing.T) {
		assert.Equal(t, Shape{{2, 0}, {2, 1}, {2, 2}, {3, 1}}, Offsets(T, Deg90))
		assert.Equal(t, Shape{{2, 2}, {1, 1}, {2, 1}, {3, 1}}, Offsets(T, Deg180))
		assert.Equal(t, Shape{{2, 0}, {0, 1}, {1, 1}, {2, 1}}, Offsets(L, Deg270))
		assert.Equal(t, Shape{{1, 0}, {2, 0}, {1, 1}, {1, 2}}, Offsets(J, Deg180))
		assert.Equal(t, Shape{{1, 1}, {2, 1}, {0, 2}, {1, 2}}, Offsets(S, Deg90))
	})

	t.Run("symmetric kinds repeat their offsets", func(t *testing.T) {
		for _, k := range []Kind{I, Z, S} {
			assert.Equal(t, Offsets(k, Deg0), Offsets(k, Deg180), k.String())
			assert.Equal(t, Offsets(k, Deg90), Offsets(k, Deg270), k.String())
			assert.NotEqual(t, Offsets(k, Deg0), Offsets(k, Deg90), k.String())
		}
		for o := Deg0; o <= Deg270; o++ {
			assert.Equal(t, Offsets(O, Deg0), Offsets(O, o))
		}
	})
}

func TestOrientationLeft(t *testing.T) {
	assert.Equal(t, Deg270, Deg0.Left())
	assert.Equal(t, Deg180, Deg270.Left())
	assert.Equal(t, Deg0, Deg90.Left())
	for o := Deg0; o <= Deg270; o++ {
		assert.Equal(t, o, o.Left().Left().Left().Left())
	}
}

func TestKindString(t *testing.T) {
	var got string
	for _, k := range Kinds() {
		got += k.String()
	}
	assert.Equal(t, "OITZSLJ", got)
	assert.Equal(t, "?", Kind(42).String())
}

func TestPieceCells(t *testing.T) {
	p := Piece{Kind: I, Orientation: Deg90, Origin: Point{3, 7}}
	assert.Equal(t, [4]Point{{5, 7}, {5, 8}, {5, 9}, {5, 10}}, p.Cells())
}

func TestGenerators(t *testing.T) {
	t.Run("bag deals every kind once per seven draws", func(t *testing.T) {
		t.Parallel()
		g := NewBagGenerator(7)
		for range 3 {
			seen := make(map[Kind]int)
			for range 7 {
				p := g.Next()
				seen[p.Kind]++
				assert.True(t, p.Orientation >= Deg0 && p.Orientation <= Deg270)
			}
			require.Len(t, seen, 7)
			for k, n := range seen {
				assert.Equal(t, 1, n, k.String())
			}
		}
	})

	t.Run("uniform is reproducible from its seed", func(t *testing.T) {
		t.Parallel()
		a, b := NewUniformGenerator(42), NewUniformGenerator(42)
		for range 50 {
			pa, pb := a.Next(), b.Next()
			assert.Equal(t, pa, pb)
			assert.True(t, pa.Kind >= O && pa.Kind <= J)
		}
	})

	t.Run("fixed generator starts over", func(t *testing.T) {
		t.Parallel()
		g := &FixedGenerator{Pieces: []Piece{{Kind: T}, {Kind: S, Orientation: Deg90}}}
		got := []Piece{g.Next(), g.Next(), g.Next()}
		assert.Equal(t, []Piece{{Kind: T}, {Kind: S, Orientation: Deg90}, {Kind: T}}, got)
	})
}
