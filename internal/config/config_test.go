package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelevels/internal/analysis/levels"
	apperrors "pricelevels/internal/errors"
)

func TestLoad_CreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, Path(dir))
	assert.Equal(t, levels.DefaultConfig(), cfg.Levels)
	assert.Equal(t, filepath.Join(dir, "bars.db"), cfg.Store.Path)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Batch.Timeout)

	// The written template loads back to the same values.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[levels]
window = 30
touch_tolerance = 0.02
swing_horizons = [3, 7]

[logging]
level = "debug"

[store]
path = "/tmp/custom.db"

[batch]
workers = 8
timeout = "90s"
`
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Levels.Window)
	assert.Equal(t, 0.02, cfg.Levels.TouchTolerance)
	assert.Equal(t, []int{3, 7}, cfg.Levels.SwingHorizons)
	assert.Equal(t, 5, cfg.Levels.SwingWindow)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 90*time.Second, cfg.Batch.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRICELEVELS_DB_PATH", "/data/bars.db")
	t.Setenv("PRICELEVELS_LOG_LEVEL", "warn")
	t.Setenv("PRICELEVELS_WORKERS", "2")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/data/bars.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Batch.Workers)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero window", "[levels]\nwindow = 0\n"},
		{"tolerance out of range", "[levels]\ntouch_tolerance = 1.5\n"},
		{"unknown log level", "[logging]\nlevel = \"loud\"\n"},
		{"no workers", "[batch]\nworkers = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(Path(dir), []byte(tt.content), 0644))

			_, err := Load(dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	t.Setenv("PRICELEVELS_WORKERS", "many")

	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
}

func TestDefault_Validates(t *testing.T) {
	assert.NoError(t, Default(t.TempDir()).Validate())
}
