package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

func newTestGuard(t *testing.T, window time.Duration) (*Guard, *store.MemoryKV, *store.MemoryKV) {
	t.Helper()
	tab := store.NewMemoryKV()
	device := store.NewMemoryKV()
	g := New(tab, device, window, logging.NewNopLogger())
	t.Cleanup(g.Close)
	return g, tab, device
}

func TestGuard_ActivateSetsBothMarkers(t *testing.T) {
	g, tab, device := newTestGuard(t, time.Minute)
	ctx := context.Background()

	g.Activate(ctx)

	flag, err := tab.Get(ctx, store.KeyGuardFlag)
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), flag)

	ts, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)
	require.NotNil(t, ts)
	_, err = time.Parse(time.RFC3339Nano, string(ts))
	require.NoError(t, err)

	assert.True(t, g.Active(ctx))
}

func TestGuard_ActivateIsIdempotent(t *testing.T) {
	g, _, device := newTestGuard(t, time.Minute)
	ctx := context.Background()

	g.Activate(ctx)
	first, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	g.Activate(ctx)
	second, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)

	assert.True(t, g.Active(ctx))
	assert.NotEqual(t, string(first), string(second), "re-activation refreshes the timestamp")
}

func TestGuard_InactiveByDefault(t *testing.T) {
	g, _, _ := newTestGuard(t, time.Minute)
	assert.False(t, g.Active(context.Background()))
}

func TestGuard_AutoExpiry(t *testing.T) {
	g, tab, device := newTestGuard(t, 30*time.Millisecond)
	ctx := context.Background()

	g.Activate(ctx)
	require.True(t, g.Active(ctx))

	assert.Eventually(t, func() bool {
		return !g.Active(ctx)
	}, time.Second, 10*time.Millisecond)

	flag, err := tab.Get(ctx, store.KeyGuardFlag)
	require.NoError(t, err)
	assert.Nil(t, flag)
	ts, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestGuard_StaleDeviceTimestampExpiresLazily(t *testing.T) {
	g, _, device := newTestGuard(t, 10*time.Second)
	ctx := context.Background()

	// A crashed peer left a timestamp; no timer is armed in this process.
	old := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339Nano)
	require.NoError(t, device.Set(ctx, store.KeyGuardTimestamp, []byte(old)))

	assert.False(t, g.Active(ctx))

	ts, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)
	assert.Nil(t, ts, "stale timestamp is cleared on read")
}

func TestGuard_FreshDeviceTimestampCountsWithoutTabFlag(t *testing.T) {
	g, _, device := newTestGuard(t, 10*time.Second)
	ctx := context.Background()

	fresh := time.Now().UTC().Format(time.RFC3339Nano)
	require.NoError(t, device.Set(ctx, store.KeyGuardTimestamp, []byte(fresh)))

	assert.True(t, g.Active(ctx))
}

func TestGuard_MalformedTimestampCleared(t *testing.T) {
	g, _, device := newTestGuard(t, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, device.Set(ctx, store.KeyGuardTimestamp, []byte("not-a-time")))

	assert.False(t, g.Active(ctx))
	ts, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestGuard_ClearTabFlagLeavesDeviceTimestamp(t *testing.T) {
	g, tab, device := newTestGuard(t, 10*time.Second)
	ctx := context.Background()

	g.Activate(ctx)
	g.ClearTabFlag(ctx)

	flag, err := tab.Get(ctx, store.KeyGuardFlag)
	require.NoError(t, err)
	assert.Nil(t, flag)

	ts, err := device.Get(ctx, store.KeyGuardTimestamp)
	require.NoError(t, err)
	assert.NotNil(t, ts)
	assert.True(t, g.Active(ctx), "device timestamp alone keeps the guard up")
}
