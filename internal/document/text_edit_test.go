package document

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
)

func change(startLine, startChar, endLine, endChar uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startChar},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

func TestApplyContentChange_SingleLineReplacement(t *testing.T) {
	originalText := "let x = first;"

	// Replace "first" (positions 8-13) with "second"
	result, err := ApplyContentChange(originalText, change(0, 8, 0, 13), "second", endpoint.OffsetEncodingUTF16)
	if err != nil {
		t.Fatalf("ApplyContentChange returned error: %v", err)
	}

	expected := "let x = second;"
	if result != expected {
		t.Errorf("Result = %q, want %q", result, expected)
	}
}

func TestApplyContentChange_MultiLineReplacement(t *testing.T) {
	originalText := "line one\nline two\nline three"

	// Delete the entire second line (including newline)
	result, err := ApplyContentChange(originalText, change(1, 0, 2, 0), "", endpoint.OffsetEncodingUTF16)
	if err != nil {
		t.Fatalf("ApplyContentChange returned error: %v", err)
	}

	expected := "line one\nline three"
	if result != expected {
		t.Errorf("Result = %q, want %q", result, expected)
	}
}

func TestApplyContentChange_Insertion(t *testing.T) {
	originalText := "line one\nline two"

	// Insert at the end of the first line (position 8 is at the end)
	result, err := ApplyContentChange(originalText, change(0, 8, 0, 8), "\ninserted", endpoint.OffsetEncodingUTF16)
	if err != nil {
		t.Fatalf("ApplyContentChange returned error: %v", err)
	}

	expected := "line one\ninserted\nline two"
	if result != expected {
		t.Errorf("Result = %q, want %q", result, expected)
	}
}

func TestApplyContentChange_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		rng  protocol.Range
		text string
	}{
		{name: "start line past end", rng: change(5, 0, 5, 0), text: "x"},
		{name: "start after end", rng: change(1, 0, 0, 0), text: "x"},
		{name: "character past line end", rng: change(0, 99, 0, 99), text: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyContentChange("one\ntwo", tt.rng, tt.text, endpoint.OffsetEncodingUTF16)
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApplyContentChange_Encodings(t *testing.T) {
	// "a𝄞b": 𝄞 (U+1D11E) is 4 UTF-8 bytes, one surrogate pair in UTF-16,
	// one code point in UTF-32. The position of "b" differs per encoding.
	originalText := "a𝄞b"

	tests := []struct {
		name     string
		encoding endpoint.OffsetEncoding
		bOffset  uint32
	}{
		{name: "utf-16 counts surrogate pairs", encoding: endpoint.OffsetEncodingUTF16, bOffset: 3},
		{name: "utf-8 counts bytes", encoding: endpoint.OffsetEncodingUTF8, bOffset: 5},
		{name: "utf-32 counts code points", encoding: endpoint.OffsetEncodingUTF32, bOffset: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ApplyContentChange(originalText, change(0, tt.bOffset, 0, tt.bOffset+1), "B", tt.encoding)
			if err != nil {
				t.Fatalf("ApplyContentChange returned error: %v", err)
			}
			if result != "a𝄞B" {
				t.Errorf("Result = %q, want %q", result, "a𝄞B")
			}
		})
	}
}

func TestPositionToOffset(t *testing.T) {
	text := "one\ntwo\nthree"

	tests := []struct {
		name      string
		line      int
		character int
		expected  int
	}{
		{name: "start of document", line: 0, character: 0, expected: 0},
		{name: "middle of first line", line: 0, character: 2, expected: 2},
		{name: "start of second line", line: 1, character: 0, expected: 4},
		{name: "end of last line", line: 2, character: 5, expected: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, err := PositionToOffset(text, tt.line, tt.character, endpoint.OffsetEncodingUTF16)
			if err != nil {
				t.Fatalf("PositionToOffset returned error: %v", err)
			}
			if offset != tt.expected {
				t.Errorf("Offset = %d, want %d", offset, tt.expected)
			}
		})
	}
}
