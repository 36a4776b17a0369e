package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAssetLimitsFromFile(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "limits.yaml", `
CA:
  aged: 200000
  disabled: 200000
TX:
  aged: 150000
`)
		limits, err := LoadAssetLimitsFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, int64(200000), limits["CA"][model.PathwayAged])
		assert.Equal(t, int64(150000), limits["TX"][model.PathwayAged])
		_, ok := limits["TX"][model.PathwayDisabled]
		assert.False(t, ok)
	})

	t.Run("unknown pathway rejected", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "limits.yaml", "CA:\n  retired: 200000\n")
		_, err := LoadAssetLimitsFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retired")
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "limits.yaml", "CA:\n  aged: -1\n")
		_, err := LoadAssetLimitsFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadAssetLimitsFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadJargonFromFile(t *testing.T) {
	t.Parallel()

	t.Run("valid glossary", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "jargon.yaml", "MAGI: Modified Adjusted Gross Income, the income measure most programs use.\n")
		jargon, err := LoadJargonFromFile(path)
		require.NoError(t, err)
		assert.Contains(t, jargon["MAGI"], "Modified Adjusted Gross Income")
	})

	t.Run("bad YAML", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "jargon.yaml", "- just\n- a list\n")
		_, err := LoadJargonFromFile(path)
		assert.Error(t, err)
	})
}
