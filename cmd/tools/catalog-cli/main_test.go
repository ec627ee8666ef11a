package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/catalog"
	"github.com/annel0/tome/internal/tile"
)

const library = `
tiles:
  - key: corner
    type: Corridor
    mirror_allowed: true
    connections: {left: path, right: empty, back: path, front: empty, below: empty, above: empty}
  - key: shaft
    type: Shaft
    blacklist: [Shaft, Corridor]
    connections: {left: empty, right: empty, back: empty, front: empty, below: path, above: path}
`

func writeLibrary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(library), 0o644))
	return path
}

func TestValidate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, validate(&buf, writeLibrary(t)))
	assert.Contains(t, buf.String(), "2 определений, 2 типов")
	assert.Contains(t, buf.String(), "can_spawn_here")
}

func TestList(t *testing.T) {
	cat, err := catalog.LoadFile(writeLibrary(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, list(&buf, cat))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "Corridor,Shaft")
}

func TestFaces(t *testing.T) {
	cat, err := catalog.LoadFile(writeLibrary(t))
	require.NoError(t, err)

	t.Run("зеркальное определение", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, faces(&buf, cat, "corner"))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		// заголовок + 4 поворота x 2 варианта масштаба
		assert.Len(t, lines, 1+2*tile.RotationCount)
		assert.Contains(t, lines[0], "LEFT")
	})

	t.Run("все определения", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, faces(&buf, cat, ""))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 1+2*tile.RotationCount+tile.RotationCount)
	})

	t.Run("неизвестный ключ", func(t *testing.T) {
		assert.Error(t, faces(&bytes.Buffer{}, cat, "nope"))
	})
}
