package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/rules"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Engine.MaxRecursionDepth)
	assert.Equal(t, 2, cfg.Engine.MaxViaRecursionDepth)
	assert.Equal(t, time.Duration(0), cfg.Engine.TimeLimit())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_recursion_depth: 9\n  angle: \"45\"\n  time_limit_ms: 250\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Engine.MaxRecursionDepth)
	assert.Equal(t, 2, cfg.Engine.MaxViaRecursionDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.TimeLimit())
	a, err := cfg.Engine.AngleRestriction()
	require.NoError(t, err)
	assert.Equal(t, rules.Angle45, a)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"negative depth": "engine:\n  max_recursion_depth: -1\n",
		"spring over":    "engine:\n  spring_over_depth: 21\n",
		"angle":          "engine:\n  angle: \"30\"\n",
		"syntax":         "engine: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "router.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "router.yaml")
	cfg := Default()
	cfg.Engine.SpringOverDepth = 3
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Engine.SpringOverDepth)
}
