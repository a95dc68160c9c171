package endpoint

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-lsp-endpoint/internal/jsonrpc"
)

type echoParams struct {
	Text string `json:"text"`
}

func TestBindCallDecodesParams(t *testing.T) {
	ep, transp := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	BindCall(ep, "test/echo", func(ctx context.Context, params *echoParams) (string, error) {
		return params.Text, nil
	})

	ep.HandleCall(jsonrpc.NewIntID(1), "test/echo", json.RawMessage(`{"text":"hi"}`))
	replies := transp.repliesFor(jsonrpc.NewIntID(1))
	require.Len(t, replies, 1)
	assert.Equal(t, "hi", replies[0].result)
}

func TestBindCallDecodeFailure(t *testing.T) {
	ep, transp := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	invoked := false
	BindCall(ep, "test/echo", func(ctx context.Context, params *echoParams) (string, error) {
		invoked = true
		return "", nil
	})

	ep.HandleCall(jsonrpc.NewIntID(2), "test/echo", json.RawMessage(`{"text":12`))
	replies := transp.repliesFor(jsonrpc.NewIntID(2))
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, replies[0].rpcErr.Code)
	assert.Equal(t, "failed to decode request", replies[0].rpcErr.Message)
	assert.False(t, invoked)
}

func TestBindCallNullParams(t *testing.T) {
	ep, transp := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	BindCall(ep, "test/null", func(ctx context.Context, params *echoParams) (string, error) {
		return params.Text, nil
	})

	ep.HandleCall(jsonrpc.NewIntID(3), "test/null", json.RawMessage(`null`))
	replies := transp.repliesFor(jsonrpc.NewIntID(3))
	require.Len(t, replies, 1)
	assert.Nil(t, replies[0].rpcErr)
	assert.Equal(t, "", replies[0].result)
}

func TestBindCallHandlerError(t *testing.T) {
	ep, transp := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	BindCall(ep, "test/fail", func(ctx context.Context, params *echoParams) (string, error) {
		return "", jsonrpc.NewError(jsonrpc.CodeInvalidParams, "bad position")
	})

	ep.HandleCall(jsonrpc.NewIntID(4), "test/fail", json.RawMessage(`{}`))
	replies := transp.repliesFor(jsonrpc.NewIntID(4))
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidParams, replies[0].rpcErr.Code)
}

func TestBindAsyncCallRepliesFromWorker(t *testing.T) {
	ep, transp := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	done := make(chan struct{})
	BindAsyncCall(ep, "test/async", func(ctx context.Context, params *echoParams, reply *ReplyOnce) {
		go func() {
			defer close(done)
			defer reply.Release()
			reply.Reply(params.Text, nil)
		}()
	})

	ep.HandleCall(jsonrpc.NewIntID(5), "test/async", json.RawMessage(`{"text":"later"}`))
	<-done

	replies := transp.repliesFor(jsonrpc.NewIntID(5))
	require.Len(t, replies, 1)
	assert.Equal(t, "later", replies[0].result)
}

func TestBindNotificationDecodeFailureDropped(t *testing.T) {
	ep, _ := newTestEndpoint(t, Options{})
	initializeEndpoint(ep)

	invoked := false
	BindNotification(ep, "test/note", func(ctx context.Context, params *echoParams) error {
		invoked = true
		return nil
	})

	ep.HandleNotification("test/note", json.RawMessage(`[1,2`))
	assert.False(t, invoked)

	ep.HandleNotification("test/note", json.RawMessage(`{"text":"ok"}`))
	assert.True(t, invoked)
}

func TestCheckCancelled(t *testing.T) {
	assert.NoError(t, CheckCancelled(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CheckCancelled(ctx)
	require.Error(t, err)
	rpcErr := jsonrpc.AsError(err)
	assert.Equal(t, jsonrpc.CodeRequestCancelled, rpcErr.Code)
}
