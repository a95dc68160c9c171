package jsonrpc

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundtrip(t *testing.T) {
	var buffer bytes.Buffer
	body := []byte(`{"jsonrpc":"2.0","method":"initialized"}`)
	require.NoError(t, writeFrame(&buffer, body))

	assert.True(t, strings.HasPrefix(buffer.String(), "Content-Length: 40\r\n\r\n"))

	read, err := readFrame(bufio.NewReader(&buffer))
	require.NoError(t, err)
	assert.Equal(t, body, read)
}

func TestReadFrameIgnoresContentType(t *testing.T) {
	input := "Content-Length: 2\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n{}"
	body, err := readFrame(bufio.NewReader(strings.NewReader(input)))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing content length", input: "Content-Type: application/json\r\n\r\n{}"},
		{name: "malformed header", input: "not a header\r\n\r\n{}"},
		{name: "negative length", input: "Content-Length: -1\r\n\r\n{}"},
		{name: "short body", input: "Content-Length: 10\r\n\r\n{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFrame(bufio.NewReader(strings.NewReader(tt.input)))
			assert.Error(t, err)
		})
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := readFrame(bufio.NewReader(strings.NewReader("")))
	assert.Equal(t, io.EOF, err)
}
