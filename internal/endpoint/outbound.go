package endpoint

import (
	"encoding/json"

	"github.com/sasha-s/go-deadlock"
)

// ReplyHandler consumes the client's reply to a server-originated call.
// Exactly one of result and err is meaningful.
type ReplyHandler func(result json.RawMessage, err error)

// outboundRegistry tracks server-to-client calls awaiting replies. It is a
// FIFO deque bounded by max: clients that never reply would otherwise leak
// an entry per call. The population is small, so claims scan linearly; a map
// would lose the eviction order, which is part of the contract.
type outboundRegistry struct {
	mu      deadlock.Mutex
	nextID  int64
	pending []outboundEntry
	max     int
}

type outboundEntry struct {
	id     int64
	handle ReplyHandler
}

func newOutboundRegistry(max int) *outboundRegistry {
	return &outboundRegistry{max: max}
}

// register stores the handler and allocates the call's ID. If the deque
// overflows, the oldest entry is evicted and returned; the caller must
// invoke its handler (outside any lock) with an error saying no client
// reply arrived.
func (r *outboundRegistry) register(handle ReplyHandler) (int64, *outboundEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.pending = append(r.pending, outboundEntry{id: id, handle: handle})

	if len(r.pending) > r.max {
		evicted := r.pending[0]
		r.pending = r.pending[1:]
		return id, &evicted
	}
	return id, nil
}

// claim removes and returns the handler for the given ID, scanning from the
// oldest entry.
func (r *outboundRegistry) claim(id int64) (ReplyHandler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for index, entry := range r.pending {
		if entry.id == id {
			r.pending = append(r.pending[:index], r.pending[index+1:]...)
			return entry.handle, true
		}
	}
	return nil, false
}

// size reports the number of calls awaiting replies.
func (r *outboundRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
