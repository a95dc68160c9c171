package endpoint

import (
	"context"
)

// OffsetEncoding is the character-offset scheme positions are expressed in.
// It is negotiated once during initialize and carried as an ambient context
// value so position math deep in a handler can find it.
type OffsetEncoding string

const (
	OffsetEncodingUTF8  OffsetEncoding = "utf-8"
	OffsetEncodingUTF16 OffsetEncoding = "utf-16"
	OffsetEncodingUTF32 OffsetEncoding = "utf-32"
)

type offsetEncodingKey struct{}

// WithOffsetEncoding derives a context carrying the given offset encoding.
func WithOffsetEncoding(ctx context.Context, encoding OffsetEncoding) context.Context {
	return context.WithValue(ctx, offsetEncodingKey{}, encoding)
}

// OffsetEncodingFromContext returns the ambient offset encoding, defaulting
// to UTF-16 as the protocol does.
func OffsetEncodingFromContext(ctx context.Context) OffsetEncoding {
	if encoding, ok := ctx.Value(offsetEncodingKey{}).(OffsetEncoding); ok {
		return encoding
	}
	return OffsetEncodingUTF16
}
