package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/vec"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tome.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10000.0, cfg.Generator.RenderDistance)
	assert.Equal(t, vec.Vec3Float{X: 2000, Y: 2000, Z: 1000}, cfg.Generator.CellSize.Vec())
	assert.False(t, cfg.Generator.RefreshMirroredVisibility)
}

func TestLoad_EmptyPathWithoutEnv(t *testing.T) {
	t.Setenv("TOME_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
generator:
  render_distance: 5000
  cell_size: [100, 200, 50]
  origin: [1, -2, 0]
observer:
  source: static
  start: [10, 20, 30]
store:
  backend: badger
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Generator.RenderDistance)
	assert.Equal(t, vec.Vec3Float{X: 100, Y: 200, Z: 50}, cfg.Generator.CellSize.Vec())
	assert.Equal(t, vec.Vec3{X: 1, Y: -2}, cfg.Generator.Origin.Cell())
	assert.Equal(t, "static", cfg.Observer.Source)
	assert.Equal(t, "badger", cfg.Store.Backend)
	// Не заданное в файле остаётся по умолчанию
	assert.Equal(t, int64(1337), cfg.Generator.Seed)
	assert.Equal(t, "file", cfg.Catalog.Source)
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "generator:\n  seed: 9\n")
	t.Setenv("TOME_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Generator.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "generator:\n  render_distance: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "generator:\n  cell_size: [1, 0, 1]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "store:\n  backend: sqlite\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "generator: [broken"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPortsEnvFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("TOME_REST_PORT", "9090")
	t.Setenv("TOME_METRICS_PORT", "bad")

	assert.Equal(t, 9090, s.GetRESTPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "tome.yaml"))
	require.NoError(t, err)

	def := Default()
	def.Catalog.Mongo.URI = "mongodb://localhost:27017"
	def.Server = ServerConfig{RESTPort: 8088, MetricsPort: 2112}
	def.Logging.Components = map[string]ComponentLevels{
		"eventbus": {Console: "WARN"},
		"world":    {Console: "INFO", File: "TRACE"},
	}
	assert.Equal(t, def, cfg)
}
