// Package document provides utilities for text document manipulation.
package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-lsp-endpoint/internal/endpoint"
)

// ApplyContentChange applies one incremental content change to the given
// text and returns the updated text. Positions are interpreted in the
// negotiated offset encoding (UTF-16 unless the client asked otherwise).
func ApplyContentChange(text string, changeRange protocol.Range, newText string, encoding endpoint.OffsetEncoding) (string, error) {
	// Convert the document to lines for easier manipulation
	lines := strings.Split(text, "\n")

	startLine := int(changeRange.Start.Line)
	startChar := int(changeRange.Start.Character)
	endLine := int(changeRange.End.Line)
	endChar := int(changeRange.End.Character)

	if startLine < 0 || startLine >= len(lines) {
		return "", fmt.Errorf("start line %d out of range (0-%d)", startLine, len(lines)-1)
	}
	if endLine < 0 || endLine >= len(lines) {
		return "", fmt.Errorf("end line %d out of range (0-%d)", endLine, len(lines)-1)
	}
	if startLine > endLine {
		return "", fmt.Errorf("start line %d after end line %d", startLine, endLine)
	}

	// Convert character positions to UTF-8 byte offsets within their lines
	startByteOffset, err := charOffsetToByteOffset(lines[startLine], startChar, encoding)
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}
	endByteOffset, err := charOffsetToByteOffset(lines[endLine], endChar, encoding)
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}

	var result strings.Builder

	for i := range startLine {
		result.WriteString(lines[i])
		result.WriteString("\n")
	}

	result.WriteString(lines[startLine][:startByteOffset])
	result.WriteString(newText)
	result.WriteString(lines[endLine][endByteOffset:])

	for i := endLine + 1; i < len(lines); i++ {
		result.WriteString("\n")
		result.WriteString(lines[i])
	}

	return result.String(), nil
}

// PositionToOffset converts a line/character position to a byte offset in
// the text.
func PositionToOffset(text string, line, character int, encoding endpoint.OffsetEncoding) (int, error) {
	lines := strings.Split(text, "\n")

	if line < 0 || line >= len(lines) {
		return 0, fmt.Errorf("line %d out of range (0-%d)", line, len(lines)-1)
	}

	// Sum of all previous lines plus their newlines
	offset := 0
	for i := range line {
		offset += len(lines[i]) + 1
	}

	byteOffset, err := charOffsetToByteOffset(lines[line], character, encoding)
	if err != nil {
		return 0, err
	}

	return offset + byteOffset, nil
}

// charOffsetToByteOffset converts a character offset in the given encoding
// to a UTF-8 byte offset within the line.
func charOffsetToByteOffset(line string, offset int, encoding endpoint.OffsetEncoding) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative character offset %d", offset)
	}
	if offset == 0 {
		return 0, nil
	}

	if encoding == endpoint.OffsetEncodingUTF8 {
		if offset > len(line) {
			return 0, fmt.Errorf("UTF-8 offset %d exceeds line length %d", offset, len(line))
		}
		return offset, nil
	}

	byteOffset := 0
	unitCount := 0

	for _, r := range line {
		if unitCount >= offset {
			break
		}
		switch encoding {
		case endpoint.OffsetEncodingUTF32:
			unitCount++
		default:
			// UTF-16: runes in the BMP take one code unit, the rest take a
			// surrogate pair
			if r <= 0xFFFF {
				unitCount++
			} else {
				unitCount += 2
			}
		}
		byteOffset += utf8.RuneLen(r)
	}

	// An offset equal to the line length lands just past the last rune,
	// which is a valid insertion point; anything further is out of range.
	if unitCount < offset {
		return 0, fmt.Errorf("offset %d exceeds line length of %d units", offset, unitCount)
	}

	return byteOffset, nil
}
