package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
)

func TestNewServerDefaults(t *testing.T) {
	srv := New(nil, nil)
	defer srv.Close()

	assert.NotNil(t, srv.Documents())
	assert.NotNil(t, srv.Engine())
	assert.False(t, srv.IsShuttingDown())
	assert.Equal(t, endpoint.DefaultMaxOutboundCalls, srv.Config().MaxOutboundCalls)
	assert.Equal(t, endpoint.OffsetEncodingUTF16, srv.Config().OffsetEncoding)
	assert.Equal(t, 60*time.Second, srv.Config().ShutdownGrace)
	assert.Equal(t, "off", srv.TraceValue())
}

func TestServerShutdownFlag(t *testing.T) {
	srv := New(NoEngine{}, nil)
	defer srv.Close()

	srv.SetShuttingDown()
	assert.True(t, srv.IsShuttingDown())
}

func TestServerDrainDeadline(t *testing.T) {
	srv := New(NoEngine{}, &Config{ShutdownGrace: 10 * time.Second, Workers: 1})
	defer srv.Close()

	deadline := srv.DrainDeadline()
	remaining := time.Until(deadline)
	assert.Greater(t, remaining, 9*time.Second)
	assert.LessOrEqual(t, remaining, 10*time.Second)
}

func TestServerUpdateConfig(t *testing.T) {
	srv := New(NoEngine{}, nil)
	defer srv.Close()

	srv.UpdateConfig(func(config *Config) {
		config.MaxOutboundCalls = 7
	})
	assert.Equal(t, 7, srv.Config().MaxOutboundCalls)
}

func TestServerWorkspaceFoldersAndTrace(t *testing.T) {
	srv := New(NoEngine{}, nil)
	defer srv.Close()

	srv.SetWorkspaceFolders([]string{"file:///workspace"})
	assert.Equal(t, []string{"file:///workspace"}, srv.GetWorkspaceFolders())

	srv.SetTraceValue("verbose")
	assert.Equal(t, "verbose", srv.TraceValue())
}

func TestDocumentStoreLifecycle(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///test.txt"
	store.Set(uri, &Document{URI: uri, Text: "hello", Version: 1})

	doc, exists := store.Get(uri)
	require.True(t, exists)
	assert.Equal(t, "hello", doc.Text)

	store.Set(uri, &Document{URI: uri, Text: "hello world", Version: 2})
	doc, _ = store.Get(uri)
	assert.Equal(t, 2, doc.Version)

	assert.Equal(t, []string{uri}, store.List())

	store.Delete(uri)
	_, exists = store.Get(uri)
	assert.False(t, exists)
}

func TestWorkerPoolRunsTasks(t *testing.T) {
	pool := NewWorkerPool(2)

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		ok := pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			count++
			mu.Unlock()
		})
		require.True(t, ok)
	}
	wg.Wait()

	assert.Equal(t, 10, count)
	pool.Close()
}

func TestWorkerPoolRejectsAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	assert.False(t, pool.Submit(func() {}))

	// Closing twice is safe.
	pool.Close()
}
