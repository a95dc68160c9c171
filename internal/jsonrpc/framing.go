package jsonrpc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The LSP base protocol frames each message with HTTP-style headers followed
// by a blank line and Content-Length bytes of UTF-8 JSON. Content-Type is
// accepted but ignored.

const contentLengthHeader = "Content-Length"

// readFrame reads one framed message body from the stream. io.EOF is
// returned unwrapped so callers can recognize a clean end of stream.
func readFrame(reader *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && length < 0 {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "failed to read frame header")
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, errors.Errorf("malformed frame header: %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			length, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil || length < 0 {
				return nil, errors.Errorf("invalid %s: %q", contentLengthHeader, strings.TrimSpace(value))
			}
		}
		// Other headers (Content-Type in particular) are ignored.
	}
	if length < 0 {
		return nil, errors.Errorf("frame missing %s header", contentLengthHeader)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(reader, body); err != nil {
		return nil, errors.Wrap(err, "failed to read frame body")
	}
	return body, nil
}

// writeFrame writes one framed message body to the stream.
func writeFrame(writer io.Writer, body []byte) error {
	header := fmt.Sprintf("%s: %d\r\n\r\n", contentLengthHeader, len(body))
	if _, err := io.WriteString(writer, header); err != nil {
		return errors.Wrap(err, "failed to write frame header")
	}
	if _, err := writer.Write(body); err != nil {
		return errors.Wrap(err, "failed to write frame body")
	}
	return nil
}
