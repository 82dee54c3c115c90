package localcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SetGetRemove(t *testing.T) {
	c := openTestCache(t)

	_, found, err := c.Get("tenant/ACME/butta_color")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set("tenant/ACME/butta_color", `[{"poNo":"1"}]`))
	value, found, err := c.Get("tenant/ACME/butta_color")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"poNo":"1"}]`, value)

	require.NoError(t, c.Remove("tenant/ACME/butta_color"))
	_, found, err = c.Get("tenant/ACME/butta_color")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_RemovePrefixKeepsOtherTenants(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Set("tenant/ACME/a", "1"))
	require.NoError(t, c.Set("tenant/ACME/b", "2"))
	require.NoError(t, c.Set("tenant/OTHER/a", "3"))

	require.NoError(t, c.RemovePrefix("tenant/ACME/"))

	_, found, err := c.Get("tenant/ACME/a")
	require.NoError(t, err)
	assert.False(t, found)
	value, found, err := c.Get("tenant/OTHER/a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", value)
}
