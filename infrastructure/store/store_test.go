package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/store"
	"garmentflow/infrastructure/testutil"
)

func TestRead_AbsentSlotIsEmptyArray(t *testing.T) {
	env := testutil.NewEnv(t)

	data, err := env.Store.Read(context.Background(), "ACME", "jecard:color_pending")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestWriteThenRead_RoundTripsThroughDurableBackend(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Write(ctx, "ACME", "butta_color", []byte(`[{"poNo":"1","designNo":"D-1"}]`)))

	data, found, err := env.Backend.Inner.GetSlot(ctx, "ACME", "butta_color")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"poNo":"1","designNo":"D-1"}]`, string(data))

	data, err = env.Store.Read(ctx, "ACME", "butta_color")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"poNo":"1","designNo":"D-1"}]`, string(data))
}

func TestWrite_DurableFailureStillSucceedsAgainstLocalCache(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	env.Backend.FailWrites(true)

	require.NoError(t, env.Store.Write(ctx, "ACME", "bleach:color_pending", []byte(`[{"poNo":"7"}]`)))

	_, found, err := env.Backend.Inner.GetSlot(ctx, "ACME", "bleach:color_pending")
	require.NoError(t, err)
	assert.False(t, found, "durable copy must not exist")

	data, err := env.Store.Read(ctx, "ACME", "bleach:color_pending")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"poNo":"7"}]`, string(data))
}

func TestRead_DurableFailureFallsBackToLocalCache(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Write(ctx, "ACME", "finish:white_done", []byte(`[{"poNo":"3"}]`)))
	env.Backend.FailReads(true)

	data, err := env.Store.Read(ctx, "ACME", "finish:white_done")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"poNo":"3"}]`, string(data))

	data, err = env.Store.Read(ctx, "ACME", "never-written")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRead_PrefersDurableOverStaleLocalCopy(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Local.Set("tenant/ACME/jecard:color_done", `[{"poNo":"stale"}]`))
	require.NoError(t, env.Backend.Inner.PutSlot(ctx, "ACME", "jecard:color_done", []byte(`[{"poNo":"fresh"}]`)))

	data, err := env.Store.Read(ctx, "ACME", "jecard:color_done")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"poNo":"fresh"}]`, string(data))

	cached, found, err := env.Local.Get("tenant/ACME/jecard:color_done")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"poNo":"fresh"}]`, cached, "durable read refreshes the local copy")
}

func TestSlotsAreTenantScoped(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Write(ctx, "ACME", "butta_color", []byte(`[{"poNo":"1"}]`)))

	data, err := env.Store.Read(ctx, "OTHER", "butta_color")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestWrite_RejectsInvalidInput(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.Store.Write(ctx, "", "slot", []byte(`[]`)), store.ErrTenantRequired)
	assert.ErrorIs(t, env.Store.Write(ctx, "ACME/B", "slot", []byte(`[]`)), store.ErrTenantInvalid)
	assert.ErrorIs(t, env.Store.Write(ctx, "ACME", " ", []byte(`[]`)), store.ErrSlotRequired)
	assert.ErrorIs(t, env.Store.Write(ctx, "ACME", "slot", []byte(`{not json`)), store.ErrInvalidData)
}

func TestClear_DropsOnlyThatTenantsLocalCopies(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	env.Backend.FailWrites(true)

	require.NoError(t, env.Store.Write(ctx, "ACME", "a", []byte(`[1]`)))
	require.NoError(t, env.Store.Write(ctx, "OTHER", "a", []byte(`[2]`)))
	require.NoError(t, env.Store.Clear("ACME"))

	data, err := env.Store.Read(ctx, "ACME", "a")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = env.Store.Read(ctx, "OTHER", "a")
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, string(data))
}

func TestClear_RejectsTenantIDWithSeparator(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	env.Backend.FailWrites(true)

	require.NoError(t, env.Store.Write(ctx, "A", "a", []byte(`[1]`)))
	assert.ErrorIs(t, env.Store.Clear("A/"), store.ErrTenantInvalid)
	_, err := env.Store.Read(ctx, "A/B", "a")
	assert.ErrorIs(t, err, store.ErrTenantInvalid)

	data, err := env.Store.Read(ctx, "A", "a")
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(data))
}
