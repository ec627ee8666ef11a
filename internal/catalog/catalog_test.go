package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/tile"
)

const sampleYAML = `
connections: [bridge_rail]
tiles:
  - key: path_straight
    type: Path
    can_spawn_here: true
    connections:
      left: empty
      right: empty
      back: path
      front: path
      below: empty
      above: empty
  - key: bridge
    type: Bridge
    mirror_allowed: true
    blacklist: [Bridge, Ghost]
    connections:
      left: bridge_rail
      right: empty
      back: path
      front: path
      below: empty
      above: empty
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	cat, err := LoadFile(writeTemp(t, "library.yaml", sampleYAML))
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	defs := cat.Definitions()
	assert.Equal(t, "path_straight", defs[0].Key)
	assert.Equal(t, "bridge", defs[1].Key)

	straight := defs[0]
	assert.True(t, straight.CanSpawnHere)
	assert.False(t, straight.MirrorAllowed)
	assert.Equal(t, tile.Path, straight.Connections[tile.Back])
	assert.Equal(t, tile.Empty, straight.Connections[tile.Left])

	bridge := defs[1]
	rail, ok := tile.ParseConnection("bridge_rail")
	require.True(t, ok)
	assert.Equal(t, rail, bridge.Connections[tile.Left])
	assert.True(t, bridge.MirrorAllowed)
	assert.True(t, bridge.Forbids("Bridge"))
	assert.True(t, bridge.Forbids("Ghost"))
}

func TestLoadFile_JSON(t *testing.T) {
	content := `{"tiles":[{"key":"k","type":"T","connections":{
		"left":"empty","right":"empty","back":"empty","front":"empty","below":"empty","above":"path"}}]}`

	cat, err := LoadFile(writeTemp(t, "library.json", content))
	require.NoError(t, err)
	def, ok := cat.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, tile.Path, def.Connections[tile.Above])
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseYAML_SchemaErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "нет tiles", content: `connections: []`},
		{name: "пустой список", content: `tiles: []`},
		{name: "лишнее поле", content: "tiles:\n  - key: a\n    type: A\n    color: red\n    connections: {}\n"},
		{name: "неизвестная грань", content: "tiles:\n  - key: a\n    type: A\n    connections: {top: path}\n"},
		{name: "ключ не строка", content: "tiles:\n  - key: [1]\n    type: A\n    connections: {}\n"},
		{name: "битый yaml", content: "tiles: ["},
		{name: "имя соединения", content: "connections: [Bad-Name]\ntiles:\n  - key: a\n    type: A\n    connections: {}\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.content))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func entry(key, typ string, conns map[string]string) Entry {
	full := map[string]string{
		"left": "empty", "right": "empty", "back": "empty",
		"front": "empty", "below": "empty", "above": "empty",
	}
	for k, v := range conns {
		full[k] = v
	}
	return Entry{Key: key, Type: typ, Connections: full}
}

func TestBuild_Errors(t *testing.T) {
	t.Run("нет направления", func(t *testing.T) {
		e := entry("a", "A", nil)
		delete(e.Connections, "above")
		_, err := Build(Document{Tiles: []Entry{e}})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("неизвестное соединение", func(t *testing.T) {
		_, err := Build(Document{Tiles: []Entry{entry("a", "A", map[string]string{"left": "lava_pipe"})}})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("неизвестное направление", func(t *testing.T) {
		_, err := Build(Document{Tiles: []Entry{entry("a", "A", map[string]string{"diagonal": "path"})}})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("дубликат ключа", func(t *testing.T) {
		_, err := Build(Document{Tiles: []Entry{entry("a", "A", nil), entry("a", "B", nil)}})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("пустой тип", func(t *testing.T) {
		_, err := Build(Document{Tiles: []Entry{entry("a", "", nil)}})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("пустой каталог", func(t *testing.T) {
		_, err := Build(Document{})
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})
}

func TestBuild_UnknownBlacklistTypeAllowed(t *testing.T) {
	e := entry("a", "A", nil)
	e.Blacklist = []string{"Nobody"}

	cat, err := Build(Document{Tiles: []Entry{e}})
	require.NoError(t, err)
	def, _ := cat.Lookup("a")
	assert.True(t, def.Forbids("Nobody"))
}

func TestExport_RoundTrip(t *testing.T) {
	cat, err := LoadFile(writeTemp(t, "library.yaml", sampleYAML))
	require.NoError(t, err)

	doc := Export(cat)
	assert.Equal(t, []string{"bridge_rail"}, doc.Connections)
	require.Len(t, doc.Tiles, 2)
	assert.Equal(t, []string{"Bridge", "Ghost"}, doc.Tiles[1].Blacklist)

	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, WriteYAML(out, doc))

	again, err := LoadFile(out)
	require.NoError(t, err)
	for i, def := range cat.Definitions() {
		other := again.Definitions()[i]
		assert.Equal(t, def.Key, other.Key)
		assert.Equal(t, def.Connections, other.Connections)
		assert.Equal(t, def.Blacklist, other.Blacklist)
	}
}

func TestLoadFile_Library(t *testing.T) {
	cat, err := LoadFile(filepath.Join("..", "..", "assets", "catalog", "library.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 14, cat.Len())

	shaft, ok := tile.ParseConnection("shaft")
	require.True(t, ok)
	middle, ok := cat.Lookup("shaft_middle")
	require.True(t, ok)
	assert.Equal(t, shaft, middle.Connections[tile.Above])
	assert.Equal(t, shaft, middle.Connections[tile.Below])

	upper, ok := cat.Lookup("stairs_upper")
	require.True(t, ok)
	assert.Equal(t, tile.PathStairsTop, upper.Connections[tile.Below])
}
