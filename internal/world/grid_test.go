package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/vec"
)

func TestGrid_InverseMapping(t *testing.T) {
	grids := []vec.Vec3Float{
		{X: 2000, Y: 2000, Z: 1000},
		{X: 1, Y: 1, Z: 1},
		{X: 0.3, Y: 7.25, Z: 13},
	}

	for _, size := range grids {
		g, err := NewGrid(size)
		require.NoError(t, err)

		for x := -6; x <= 6; x++ {
			for y := -6; y <= 6; y++ {
				for z := -6; z <= 6; z++ {
					c := vec.Vec3{X: x, Y: y, Z: z}
					assert.Equal(t, c, g.WorldToGrid(g.GridToWorld(c)), "cell %+v size %+v", c, size)
				}
			}
		}
	}
}

func TestGrid_WorldToGridRounds(t *testing.T) {
	g := testGrid(t)

	assert.Equal(t, vec.Vec3{}, g.WorldToGrid(vec.Vec3Float{X: 999, Y: -999, Z: 499}))
	assert.Equal(t, vec.Vec3{X: 1, Y: -1, Z: 1}, g.WorldToGrid(vec.Vec3Float{X: 1001, Y: -1001, Z: 501}))
	// Половина округляется вверх, в том числе для отрицательных координат
	assert.Equal(t, vec.Vec3{X: 1, Y: 0}, g.WorldToGrid(vec.Vec3Float{X: 1000, Y: -1000}))
	assert.Equal(t, vec.Vec3{X: -1, Y: -1}, g.WorldToGrid(vec.Vec3Float{X: -1001, Y: -3000}))
	assert.Equal(t, vec.Vec3Float{X: -4000, Y: 2000, Z: 3000}, g.GridToWorld(vec.Vec3{X: -2, Y: 1, Z: 3}))
}

func TestGrid_Extent(t *testing.T) {
	g := testGrid(t)
	assert.Equal(t, vec.Vec3{X: 5, Y: 5, Z: 10}, g.Extent(10000))
	assert.Equal(t, vec.Vec3{X: 1, Y: 1, Z: 2}, g.Extent(1500))
}

func TestNewGrid_Invalid(t *testing.T) {
	_, err := NewGrid(vec.Vec3Float{X: 1, Y: 0, Z: 1})
	assert.Error(t, err)
	_, err = NewGrid(vec.Vec3Float{X: -1, Y: 1, Z: 1})
	assert.Error(t, err)
}

func TestMemoryTileStore(t *testing.T) {
	s := NewMemoryTileStore()
	a := def("a", nil)
	c := vec.Vec3{X: 1, Y: 2, Z: 3}

	_, ok, err := s.Get(c)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(c, TileInstance{Handle: 5, Def: a}))
	require.NoError(t, s.Put(vec.Vec3{}, EmptyTile()))
	assert.Equal(t, 2, s.Len())

	inst, ok, err := s.Get(c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, inst.Occupied())
	assert.Same(t, a, inst.Def)

	empty, ok, _ := s.Get(vec.Vec3{})
	require.True(t, ok)
	assert.False(t, empty.Occupied())

	near, err := TilesWithin(s, vec.Vec3{}, 2)
	require.NoError(t, err)
	assert.Len(t, near, 1)

	require.NoError(t, s.Delete(c))
	assert.Equal(t, 1, s.Len())

	visited := 0
	require.NoError(t, s.Range(func(vec.Vec3, TileInstance) bool {
		visited++
		return false
	}))
	assert.Equal(t, 1, visited)
}
