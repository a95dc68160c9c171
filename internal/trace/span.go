// Package trace provides lightweight per-message spans. Spans collect named
// args while a request is in flight and log them with the duration when the
// span ends.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lsp-endpoint.trace")

// Span records one traced operation, usually a single inbound message.
type Span struct {
	id    string
	name  string
	start time.Time

	mu   sync.Mutex
	args map[string]any
}

type spanKey struct{}

// Begin opens a span named after the traced operation and stores it in the
// returned context. Child operations derive their own spans from the same
// context.
func Begin(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		id:    ksuid.New().String(),
		name:  name,
		start: time.Now(),
		args:  make(map[string]any),
	}
	return context.WithValue(ctx, spanKey{}, span), span
}

// FromContext returns the active span, or nil when tracing is not attached.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// Attach records a named argument on the span. Safe for concurrent use;
// handlers may attach from worker goroutines.
func (s *Span) Attach(name string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args[name] = value
}

// ID returns the span's unique identifier.
func (s *Span) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Duration returns the time elapsed since the span began.
func (s *Span) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return time.Since(s.start)
}

// End closes the span, logging its name, ID, duration and collected args.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Debugf("span %s (%s) %s args=%v", s.name, s.id, time.Since(s.start), s.args)
}
