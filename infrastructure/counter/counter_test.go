package counter_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/counter"
	"garmentflow/infrastructure/testutil"
)

func TestNext_StartsAtOneAndIncrements(t *testing.T) {
	env := testutil.NewEnv(t)
	c := counter.New(env.Store, counter.NewMemory())
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Next(ctx, "ACME", counter.Challan)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	current, err := c.Current(ctx, "ACME", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestNext_ScopedByTenant(t *testing.T) {
	env := testutil.NewEnv(t)
	c := counter.New(env.Store, nil)
	ctx := context.Background()

	_, err := c.Next(ctx, "ACME", counter.Challan)
	require.NoError(t, err)
	got, err := c.Next(ctx, "OTHER", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestNext_MemoryWinsOverLowerStoredValue(t *testing.T) {
	env := testutil.NewEnv(t)
	memory := counter.NewMemory()
	c := counter.New(env.Store, memory)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.Next(ctx, "ACME", counter.Challan)
		require.NoError(t, err)
	}
	// Another device reset the stored value behind our back.
	require.NoError(t, env.Store.Write(ctx, "ACME", "counter:challan", []byte("2")))

	got, err := c.Next(ctx, "ACME", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}

func TestNext_StoredValueWinsOverStaleMemory(t *testing.T) {
	env := testutil.NewEnv(t)
	c := counter.New(env.Store, counter.NewMemory())
	ctx := context.Background()

	require.NoError(t, env.Store.Write(ctx, "ACME", "counter:challan", []byte("[41]")))
	got, err := c.Next(ctx, "ACME", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestNext_SharedMemoryIssuesDistinctValuesInProcess(t *testing.T) {
	env := testutil.NewEnv(t)
	c := counter.New(env.Store, counter.NewMemory())
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Next(ctx, "ACME", counter.Challan)
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for v := range results {
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
}

func TestNext_StoresCounterAsOneElementArray(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Write(ctx, "ACME", "counter:challan", []byte("[5]")))
	got, err := counter.New(env.Store, counter.NewMemory()).Next(ctx, "ACME", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	raw, err := env.Store.Read(ctx, "ACME", "counter:challan")
	require.NoError(t, err)
	assert.JSONEq(t, "[6]", string(raw))

	// Older bare-number values still count.
	require.NoError(t, env.Store.Write(ctx, "BETA", "counter:challan", []byte("9")))
	got, err = counter.New(env.Store, counter.NewMemory()).Next(ctx, "BETA", counter.Challan)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)
}
