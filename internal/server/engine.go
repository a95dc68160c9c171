package server

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Engine is the analysis side of the server: everything that understands
// document content. The endpoint core only routes messages; language
// features plug in behind this interface.
type Engine interface {
	// Analyze computes diagnostics for a document's current content.
	// Called after didOpen and didChange, off the dispatch goroutine.
	Analyze(ctx context.Context, doc *Document) []protocol.Diagnostic

	// Close releases the engine's resources and joins its background work.
	Close() error
}

// NoEngine is an Engine that analyzes nothing. It keeps the endpoint
// runnable without a language frontend attached.
type NoEngine struct{}

// Analyze implements Engine.
func (NoEngine) Analyze(ctx context.Context, doc *Document) []protocol.Diagnostic {
	return nil
}

// Close implements Engine.
func (NoEngine) Close() error {
	return nil
}
