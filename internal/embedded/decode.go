package embedded

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"menuscope/internal/services"
)

// ContextRadius is the number of characters kept on each side of a decode
// failure in DecodeError.Context.
const ContextRadius = 50

// DecodeError describes a literal that could not be unescaped or parsed.
type DecodeError struct {
	// Literal is the captured argument, still escaped.
	Literal string
	// Offset is the byte offset of the failure. Escape failures are positioned
	// in Literal; parse failures in the unescaped text.
	Offset int
	// Context is up to ContextRadius characters either side of Offset.
	Context string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode embedded json at offset %d: %v (context: %q)", e.Offset, e.Err, e.Context)
}

func (e *DecodeError) Unwrap() []error {
	return []error{services.ErrDecode, e.Err}
}

// Decode unescapes the literal once and parses the result as a single JSON
// value. Numbers are kept as json.Number so their source spelling survives a
// round trip.
func Decode(lit Literal) (any, error) {
	text, err := Unescape(lit.Text)
	if err != nil {
		var escErr *EscapeError
		offset := 0
		if errors.As(err, &escErr) {
			offset = escErr.Offset
		}
		return nil, &DecodeError{
			Literal: lit.Text,
			Offset:  offset,
			Context: contextWindow(lit.Text, offset),
			Err:     err,
		}
	}
	doc, offset, err := parseJSON(text)
	if err != nil {
		return nil, &DecodeError{
			Literal: lit.Text,
			Offset:  offset,
			Context: contextWindow(text, offset),
			Err:     err,
		}
	}
	return doc, nil
}

// Extract finds and decodes the embedded catalog of a page. A page without the
// marker yields an error matching services.ErrNotFound.
func Extract(html string) (any, error) {
	lit, ok := Find(html)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "extract", "find", "no "+Marker+" literal in page", nil)
	}
	return Decode(lit)
}

func parseJSON(text string) (any, int, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errorOffset(err, text), err
	}
	end := int(dec.InputOffset())
	var extra json.RawMessage
	if err := dec.Decode(&extra); err == io.EOF {
		return doc, 0, nil
	}
	return nil, skipSpace(text, end), errors.New("unexpected data after top-level value")
}

func errorOffset(err error, text string) int {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		// Offset counts the offending byte itself; point at it.
		return clampOffset(int(syntaxErr.Offset)-1, text)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return len(text)
	}
	return 0
}

func clampOffset(offset int, text string) int {
	if offset < 0 {
		return 0
	}
	if offset > len(text) {
		return len(text)
	}
	return offset
}

// contextWindow returns up to ContextRadius runes either side of the byte
// offset.
func contextWindow(text string, offset int) string {
	offset = clampOffset(offset, text)
	for offset > 0 && offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset--
	}
	start := offset
	for n := 0; n < ContextRadius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := offset
	for n := 0; n < ContextRadius && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
