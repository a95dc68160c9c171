// Package server provides the core LSP server state and management.
package server

import (
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
)

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// engine is the analysis engine serving language features
	engine Engine

	// workers runs handler work that must not block the dispatch goroutine
	workers *WorkerPool

	// workspaceFolders stores the workspace folders from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	// config holds server configuration
	config *Config

	// traceValue is the client's $/setTrace setting
	traceValue string

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// Config holds server configuration options.
type Config struct {
	// MaxOutboundCalls caps in-flight server-to-client requests
	MaxOutboundCalls int

	// OffsetEncoding is the offset encoding used before negotiation
	OffsetEncoding endpoint.OffsetEncoding

	// ShutdownGrace is how long a clean shutdown may take to drain
	ShutdownGrace time.Duration

	// Workers sizes the worker pool
	Workers int
}

// DefaultConfig returns the configuration used when no flags override it.
func DefaultConfig() *Config {
	return &Config{
		MaxOutboundCalls: endpoint.DefaultMaxOutboundCalls,
		OffsetEncoding:   endpoint.OffsetEncodingUTF16,
		ShutdownGrace:    60 * time.Second,
		Workers:          4,
	}
}

// New creates a new LSP server instance.
func New(engine Engine, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if engine == nil {
		engine = NoEngine{}
	}
	return &Server{
		documents:  NewDocumentStore(),
		engine:     engine,
		workers:    NewWorkerPool(config.Workers),
		config:     config,
		traceValue: "off",
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Engine returns the analysis engine.
func (s *Server) Engine() Engine {
	return s.engine
}

// Workers returns the worker pool.
func (s *Server) Workers() *WorkerPool {
	return s.workers
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig updates the server configuration atomically.
// The update function is called with the current config under a write lock.
func (s *Server) UpdateConfig(update func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(s.config)
}

// DrainDeadline reports when a clean shutdown started now would give up
// waiting for in-flight work. Introspection only; nothing enforces it.
func (s *Server) DrainDeadline() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Now().Add(s.config.ShutdownGrace)
}

// SetWorkspaceFolders sets the workspace folders.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceFolders = folders
}

// GetWorkspaceFolders returns the workspace folders.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspaceFolders
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// SetTraceValue stores the client's $/setTrace setting.
func (s *Server) SetTraceValue(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traceValue = value
}

// TraceValue returns the client's $/setTrace setting.
func (s *Server) TraceValue() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traceValue
}

// Close releases the server's workers. Called after the transport loop has
// stopped accepting new work.
func (s *Server) Close() {
	s.workers.Close()
}
