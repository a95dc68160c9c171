package endpoint

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

// cancelRegistry maps in-flight inbound request IDs to their cancel signals.
// Handlers may finish on worker goroutines, so cleanup races registration of
// a reused ID; the cookie disambiguates which registration a cleanup is for.
type cancelRegistry struct {
	mu         deadlock.Mutex
	entries    map[string]cancelEntry
	nextCookie uint32
}

type cancelEntry struct {
	cancel context.CancelFunc
	cookie uint32
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{
		entries: make(map[string]cancelEntry),
	}
}

// Register derives a cancelable context for an inbound call and records its
// cancel signal under the stringified ID. When a client reuses an ID the
// later registration overwrites the earlier one, which then cannot be
// canceled from the client's side anymore.
//
// The returned cleanup erases the entry, but only if the cookie still
// matches, so a finished request never wipes out its successor's entry.
func (r *cancelRegistry) Register(ctx context.Context, id jsonrpc.ID) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	key := id.String()

	r.mu.Lock()
	cookie := r.nextCookie
	r.nextCookie++
	r.entries[key] = cancelEntry{cancel: cancel, cookie: cookie}
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		if entry, ok := r.entries[key]; ok && entry.cookie == cookie {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		cancel()
	}
	return ctx, cleanup
}

// Cancel fires the cancel signal for the given ID, if one is registered.
// Firing is idempotent; canceling a completed request is a no-op.
func (r *cancelRegistry) Cancel(id jsonrpc.ID) {
	key := id.String()

	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()

	if ok {
		entry.cancel()
	}
}

// size reports the number of live entries.
func (r *cancelRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
