package snapshot

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
	"github.com/annel0/tome/internal/world/actor"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()

	scene := actor.NewScene()
	store := world.NewMemoryTileStore()
	grid, err := world.NewGrid(vec.Vec3Float{X: 2000, Y: 2000, Z: 1000})
	require.NoError(t, err)

	stairs := &tile.Definition{Key: "stairs_a", Type: "Stairs"}
	h, err := scene.Spawn(context.Background(), world.SpawnRequest{
		Type:  stairs.Type,
		Yaw:   -90,
		Scale: tile.MirrorX,
	})
	require.NoError(t, err)

	require.NoError(t, store.Put(vec.Vec3{X: 1, Y: 0, Z: 0}, world.TileInstance{Handle: h, Def: stairs}))
	require.NoError(t, store.Put(vec.Vec3{X: 0, Y: 0, Z: -1}, world.EmptyTile()))

	snap, err := Capture(store, scene, grid, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	require.NoError(t, err)
	return snap
}

func TestCapture(t *testing.T) {
	snap := sampleSnapshot(t)

	assert.Equal(t, Version, snap.Header.Version)
	assert.Equal(t, 2, snap.Header.Tiles)
	assert.Equal(t, 1, snap.Header.Occupied)
	assert.Equal(t, vec.Vec3Float{X: 2000, Y: 2000, Z: 1000}, snap.Header.CellSize)

	require.Len(t, snap.Tiles, 2)
	assert.Equal(t, Tile{Coord: vec.Vec3{Z: -1}}, snap.Tiles[0])
	assert.Equal(t, Tile{
		Coord:    vec.Vec3{X: 1},
		Key:      "stairs_a",
		Type:     "Stairs",
		Rotation: 270,
		Mirrored: true,
	}, snap.Tiles[1])
}

func TestEncodeDecode(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not zstd at all")))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	snap := sampleSnapshot(t)
	path := filepath.Join(t.TempDir(), "nested", "tiles.json.zst")

	require.NoError(t, WriteFile(path, snap))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Tiles, got.Tiles)
}
