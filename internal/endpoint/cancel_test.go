package endpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func TestCancelRegistryFiresSignal(t *testing.T) {
	registry := newCancelRegistry()

	ctx, cleanup := registry.Register(context.Background(), jsonrpc.NewIntID(1))
	defer cleanup()
	require.False(t, cancelled(ctx))

	registry.Cancel(jsonrpc.NewIntID(1))
	assert.True(t, cancelled(ctx))

	// Firing again is a no-op.
	registry.Cancel(jsonrpc.NewIntID(1))
}

func TestCancelRegistryUnknownIDIsNoOp(t *testing.T) {
	registry := newCancelRegistry()
	registry.Cancel(jsonrpc.NewIntID(42))
}

func TestCancelRegistryCleanupErasesEntry(t *testing.T) {
	registry := newCancelRegistry()

	ctx, cleanup := registry.Register(context.Background(), jsonrpc.NewIntID(1))
	assert.Equal(t, 1, registry.size())

	cleanup()
	assert.Equal(t, 0, registry.size())

	// The request is over; a late cancel must not fire anything... and the
	// context was released by its own cleanup.
	registry.Cancel(jsonrpc.NewIntID(1))
	assert.True(t, cancelled(ctx)) // cleanup released the context
}

func TestCancelRegistryIDReuseLastWins(t *testing.T) {
	registry := newCancelRegistry()
	id := jsonrpc.NewIntID(5)

	first, cleanupFirst := registry.Register(context.Background(), id)
	second, cleanupSecond := registry.Register(context.Background(), id)
	defer cleanupSecond()

	// Only one entry: the later registration overwrote the earlier.
	assert.Equal(t, 1, registry.size())

	// Cancel hits the later registration only.
	registry.Cancel(id)
	assert.True(t, cancelled(second))
	assert.False(t, cancelled(first))

	cleanupFirst()
	// The earlier call's cleanup carries a stale cookie and must not remove
	// the later call's entry.
	assert.Equal(t, 1, registry.size())
}

func TestCancelRegistryDistinguishesIntAndStringIDs(t *testing.T) {
	registry := newCancelRegistry()

	intCtx, cleanupInt := registry.Register(context.Background(), jsonrpc.NewIntID(5))
	defer cleanupInt()
	strCtx, cleanupStr := registry.Register(context.Background(), jsonrpc.NewStringID("5"))
	defer cleanupStr()

	assert.Equal(t, 2, registry.size())

	registry.Cancel(jsonrpc.NewStringID("5"))
	assert.True(t, cancelled(strCtx))
	assert.False(t, cancelled(intCtx))
}
