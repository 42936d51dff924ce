package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("elements: []\n"), 0644))
}

func TestFindFixtureFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"))
	writeFile(t, filepath.Join(dir, "nested", "a.yml"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	files, err := FindFixtureFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "a.yml"),
	}, files)

	_, err = FindFixtureFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExpandFixturePaths(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.txt")
	writeFile(t, single)
	writeFile(t, filepath.Join(dir, "set", "one.yaml"))
	writeFile(t, filepath.Join(dir, "set", "two.yaml"))

	files, err := ExpandFixturePaths([]string{single, filepath.Join(dir, "set")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "set", "one.yaml"),
		filepath.Join(dir, "set", "two.yaml"),
	}, files)

	_, err = ExpandFixturePaths([]string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
