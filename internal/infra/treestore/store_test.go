package treestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/flow/internal/domain"
)

func TestStore_Load_YAMLWritesBackIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Dev
id: 1
children:
  - command:
      executable: npm
      arguments: [install]
    children:
      - command:
          executable: gulp
          arguments: [serve]
        tile: true
`), 0o600))

	store := New()
	tree, err := store.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Dev", tree.Name)
	assert.Equal(t, 1, tree.ID)
	require.Len(t, tree.Children, 1)
	install := tree.Children[0]
	assert.Equal(t, "npm install", install.Command.String())
	require.Len(t, install.Children, 1)
	assert.True(t, install.Children[0].Tile)

	// the generated ids were persisted
	var rec domain.TreeRecord
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(content, &rec))
	assert.Equal(t, install.ID, rec.Children[0].ID)
	assert.Equal(t, install.Children[0].ID, rec.Children[0].Children[0].ID)

	// loading again keeps them
	again, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, tree, again)
}

func TestStore_Load_JSONLegacyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	content := `{"id": 5, "children": [{"id": 6, "command": {"command": "au", "args": ["run", "--watch"]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tree, err := New().Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultTreeName, tree.Name)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "au run --watch", tree.Children[0].Command.String())

	// every id was supplied, so the file is untouched
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestStore_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"tree.yaml", "tree.yml", "tree.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".flow", name)
			tree := domain.NewCommandTree()
			tree.Name = "Release"
			build := tree.AddChild(domain.NewCommandNode(domain.NewCommand("gulp", "build")))
			build.AddChild(domain.NewCommandNode(domain.NewCommand("gulp", "deploy", "--prod")))

			store := New()
			require.NoError(t, store.Save(path, tree))

			loaded, err := store.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tree, loaded)
		})
	}
}

func TestStore_Errors(t *testing.T) {
	store := New()
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := store.Load(filepath.Join(dir, "tree.toml"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

		err = store.Save(filepath.Join(dir, "tree.txt"), domain.NewCommandTree())
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid content", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := store.Load(path)
		assert.Error(t, err)
	})

	t.Run("cyclic tree", func(t *testing.T) {
		tree := domain.NewCommandTree()
		child := tree.AddChild(domain.NewCommandTree())
		child.AddChild(tree)
		err := store.Save(filepath.Join(dir, "cycle.yaml"), tree)
		assert.ErrorIs(t, err, domain.ErrTreeCycle)
	})
}
