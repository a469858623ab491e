package commands

import (
	"context"
	"testing"
	"time"

	"github.com/Rustixir/erlrust/internal/gensrv"
	"github.com/stretchr/testify/require"
)

func TestCacheSetThenGet(t *testing.T) {
	t.Parallel()

	p := gensrv.New(gensrv.ProcessConfig[cacheRequest, cacheResponse, cacheState]{
		Behavior:  cacheBehavior{},
		InitState: cacheState{data: make(map[string]string)},
	})
	conn, handle := p.Spawn()
	defer func() {
		p.Stop()
		_, _ = handle.Join(context.Background())
	}()

	ctx := context.Background()
	require.NoError(t, conn.Cast(ctx, cacheRequest{op: opSet, key: "a", value: "1"}, time.Second))

	resp, err := conn.Call(ctx, cacheRequest{op: opGet, key: "a"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.found)
	require.Equal(t, "1", resp.value)

	require.NoError(t, conn.Cast(ctx, cacheRequest{op: opDelete, key: "a"}, time.Second))

	resp, err = conn.Call(ctx, cacheRequest{op: opGet, key: "a"}, time.Second)
	require.NoError(t, err)
	require.False(t, resp.found)
}

func TestCacheDelayedGetReleasedBySubsequentSet(t *testing.T) {
	t.Parallel()

	p := gensrv.New(gensrv.ProcessConfig[cacheRequest, cacheResponse, cacheState]{
		Behavior:  cacheBehavior{},
		InitState: cacheState{data: make(map[string]string)},
	})
	conn, handle := p.Spawn()
	defer func() {
		p.Stop()
		_, _ = handle.Join(context.Background())
	}()

	ctx := context.Background()

	resultCh := make(chan cacheResponse, 1)
	go func() {
		resp, err := conn.Call(ctx, cacheRequest{op: opGetDelayed, key: "k"}, time.Second)
		require.NoError(t, err)
		resultCh <- resp
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Cast(ctx, cacheRequest{op: opSet, key: "k", value: "v"}, time.Second))

	select {
	case resp := <-resultCh:
		require.True(t, resp.found)
		require.Equal(t, "v", resp.value)
	case <-time.After(time.Second):
		t.Fatal("delayed get was never released")
	}
}

func TestSpawnCacheRegistersUnderName(t *testing.T) {
	t.Parallel()

	reg := gensrv.NewRegistry()
	proc, _, handle := spawnCache(reg, "named-cache", true)
	defer func() {
		proc.Stop()
		_, _ = handle.Join(context.Background())
	}()

	require.True(t, reg.Exist("named-cache"))

	looked, err := gensrv.Lookup[cacheRequest, cacheResponse](reg, "named-cache")
	require.NoError(t, err)

	resp, err := looked.Call(context.Background(), cacheRequest{op: opGet, key: "missing"}, time.Second)
	require.NoError(t, err)
	require.False(t, resp.found)
}

func TestCacheTrapExitKeepsProcessAlive(t *testing.T) {
	t.Parallel()

	p := gensrv.New(gensrv.ProcessConfig[cacheRequest, cacheResponse, cacheState]{
		Behavior:  cacheBehavior{},
		InitState: cacheState{data: make(map[string]string)},
		TrapExit:  true,
	})
	conn, handle := p.Spawn()
	defer func() {
		p.Stop()
		_, _ = handle.Join(context.Background())
	}()

	ctx := context.Background()
	require.NoError(t, conn.Signal(ctx, gensrv.NewExitSignal("peer", "crashed"), time.Second))

	resp, err := conn.Call(ctx, cacheRequest{op: opGet, key: "anything"}, time.Second)
	require.NoError(t, err)
	require.False(t, resp.found)
}
