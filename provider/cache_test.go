package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := testCache(t)

	var out map[string]int
	assert.False(t, c.Get("missing", &out))

	require.NoError(t, c.Put("key", map[string]int{"a": 1}))
	require.True(t, c.Get("key", &out))
	assert.Equal(t, map[string]int{"a": 1}, out)
}

func TestCacheRejectsCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	var out map[string]int
	assert.False(t, c.Get("bad", &out))
}

func TestCacheBytes(t *testing.T) {
	c := testCache(t)

	_, ok := c.GetBytes("img.png")
	assert.False(t, ok)

	require.NoError(t, c.PutBytes("img.png", []byte{1, 2, 3}))
	data, ok := c.GetBytes("img.png")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
