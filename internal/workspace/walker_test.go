package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/uml-go/internal/diagram"
)

const validJSON = `{"classes": [{"name": "Shop"}, {"name": "Item"}],
	"relationships": [{"source": "Shop", "destination": "Item", "type": "composition"}]}`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"shop.json":              validJSON,
		"models/people.yaml":     "classes:\n  - name: Person\n",
		"models/broken.yml":      "classes:\n  - name: 9bad\n",
		"README.md":              "# README",
		".gitignore":             "scratch/\n*.tmp.json\n",
		"scratch/draft.json":     validJSON,
		"old.tmp.json":           validJSON,
		"node_modules/x/a.json":  validJSON,
		"package.json":           `{"name": "web"}`,
		"deep/nested/dir/z.json": `{"classes": []}`,
	})

	entries, err := Scan(tmpDir)
	require.NoError(t, err)

	var rels []string
	for _, e := range entries {
		rels = append(rels, e.RelPath)
	}
	assert.Equal(t, []string{
		filepath.Join("deep", "nested", "dir", "z.json"),
		filepath.Join("models", "broken.yml"),
		filepath.Join("models", "people.yaml"),
		"shop.json",
	}, rels)

	t.Run("DecodesValidFiles", func(t *testing.T) {
		t.Parallel()
		shop := entries[3]
		require.True(t, shop.Valid())
		assert.Equal(t, "json", shop.Format)
		assert.Equal(t, 2, shop.Store.ClassCount())
		assert.Len(t, shop.SHA256, 64)
		assert.Equal(t, filepath.Join(tmpDir, "shop.json"), shop.Path)
	})

	t.Run("ReportsInvalidFiles", func(t *testing.T) {
		t.Parallel()
		broken := entries[1]
		assert.False(t, broken.Valid())
		assert.Equal(t, "yaml", broken.Format)
		assert.ErrorIs(t, broken.Err, diagram.ErrInvalidName)
	})
}

func TestLoadGitignore(t *testing.T) {
	t.Parallel()

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		patterns, err := loadGitignore(t.TempDir())
		assert.NoError(t, err)
		assert.Empty(t, patterns)
	})

	t.Run("SkipsCommentsAndBlanks", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{".gitignore": "# comment\n\n*.bak\nout/\n"})

		patterns, err := loadGitignore(tmpDir)
		require.NoError(t, err)
		assert.Len(t, patterns, 2)
	})
}

func TestIsDiagramFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"a.json", "b.yaml", "c.YML"} {
		assert.True(t, IsDiagramFile(name), name)
	}
	for _, name := range []string{"a.md", "Makefile", "x.go"} {
		assert.False(t, IsDiagramFile(name), name)
	}
}

func TestSaveName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shop", SaveName("shop.json"))
	assert.Equal(t, "models.shop", SaveName(filepath.Join("models", "shop.yaml")))
	assert.Equal(t, "a.b.c", SaveName(filepath.Join("a", "b", "c.yml")))
}
