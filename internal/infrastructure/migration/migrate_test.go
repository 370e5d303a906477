package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPath(t *testing.T) {
	t.Run("finds directory in an ancestor", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, DefaultPath), 0o755))
		nested := filepath.Join(root, "internal", "infrastructure")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		path, err := FindPath(nested)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, DefaultPath), path)
	})

	t.Run("ignores a plain file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, DefaultPath), []byte("x"), 0o644))

		_, err := FindPath(root)
		// the temp dir's ancestors have no migrations directory either
		assert.Error(t, err)
	})

	t.Run("finds the repository schema", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)

		path, err := FindPath(wd)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(path, "000001_init_schema.up.sql"))
		assert.FileExists(t, filepath.Join(path, "000001_init_schema.down.sql"))
	})
}
