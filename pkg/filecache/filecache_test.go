package filecache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayvdb/tsgrep/pkg/filecache"
)

func TestGetReturnsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))

	c := filecache.New(nil)
	defer c.Close()

	data, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(data))
}

func TestGetCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))

	c := filecache.New(nil)
	defer c.Close()

	first, err := c.Get(path)
	require.NoError(t, err)
	second, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.FilesLoaded)
}

func TestGetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.rs")
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))

	c := filecache.New(nil)
	defer c.Close()

	data, err := c.Get(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestGetMissingFileErrors(t *testing.T) {
	c := filecache.New(nil)
	defer c.Close()

	_, err := c.Get(filepath.Join(t.TempDir(), "nope.rs"))
	assert.Error(t, err)
}
