package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100*time.Millisecond, cfg.World.TickInterval())
	assert.Equal(t, 8, cfg.Streaming.RenderDistance)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
world:
  seed: 42
streaming:
  render_distance: 2
  generation_step_delay_us: 250
storage:
  backend: badger
`))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 2, cfg.Streaming.RenderDistance)
	assert.Equal(t, 250*time.Microsecond, cfg.Streaming.GenerationStepDelay())
	assert.Equal(t, "badger", cfg.Storage.Backend)
	// Не указанные поля берутся из Default
	assert.Equal(t, 4, cfg.Streaming.MaxConcurrentLoads)
	assert.Equal(t, 0.7, cfg.Terrain.HeightScale)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"нулевой лимит загрузок": "streaming:\n  max_concurrent_loads: 0\n",
		"неизвестный бэкенд":     "storage:\n  backend: redis\n",
		"масштаб высоты > 1":     "terrain:\n  height_scale: 1.5\n",
		"неизвестное поле":       "world:\n  gravity: 9.8\n",
		"неизвестный уровень":    "logging:\n  level: loud\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  seed: 7\n"), 0644))

	t.Setenv("VOXEL_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)

	t.Setenv("VOXEL_CONFIG", "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "нет.yaml"))
	assert.Error(t, err)
}

func TestDebugPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("VOXEL_DEBUG_PORT", "")
	assert.Equal(t, 8090, s.GetDebugPort())

	t.Setenv("VOXEL_DEBUG_PORT", "9999")
	assert.Equal(t, 9999, s.GetDebugPort())

	s.DebugPort = 7000
	assert.Equal(t, 7000, s.GetDebugPort())
}
