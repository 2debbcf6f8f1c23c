package embedded

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// EscapeError reports a malformed escape sequence in a captured literal.
type EscapeError struct {
	Offset int
	Reason string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("invalid escape at offset %d: %s", e.Offset, e.Reason)
}

// Unescape removes exactly one level of JavaScript string escaping from a
// literal body, producing the text the page script would hand to JSON.parse.
// Escaped quotes and backslashes become literal characters, \uXXXX and \xHH
// become code points, and escapes with no special meaning yield the escaped
// character itself. A \u high or low surrogate must be part of a complete
// pair; a lone one is an EscapeError.
func Unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", &EscapeError{Offset: i, Reason: "trailing backslash"}
		}
		switch e := s[i+1]; e {
		case '"', '\'', '\\', '/':
			b.WriteByte(e)
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case '0':
			b.WriteByte(0)
			i += 2
		case '\n':
			// Line continuation.
			i += 2
		case '\r':
			i += 2
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case 'x':
			v, ok := parseHex(s, i+2, 2)
			if !ok {
				return "", &EscapeError{Offset: i, Reason: `\x needs two hex digits`}
			}
			b.WriteRune(rune(v))
			i += 4
		case 'u':
			r, width, err := decodeUnicodeEscape(s, i)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
			i += width
		default:
			r, size := utf8.DecodeRuneInString(s[i+1:])
			b.WriteRune(r)
			i += 1 + size
		}
	}
	return b.String(), nil
}

// decodeUnicodeEscape decodes the \uXXXX sequence at s[i:], joining a
// high surrogate with the low surrogate that must follow it. It returns the
// rune and the number of bytes consumed.
func decodeUnicodeEscape(s string, i int) (rune, int, error) {
	v, ok := parseHex(s, i+2, 4)
	if !ok {
		return 0, 0, &EscapeError{Offset: i, Reason: `\u needs four hex digits`}
	}
	r := rune(v)
	if !utf16.IsSurrogate(r) {
		return r, 6, nil
	}
	if i+12 <= len(s) && s[i+6] == '\\' && s[i+7] == 'u' {
		if lo, ok := parseHex(s, i+8, 4); ok {
			if joined := utf16.DecodeRune(r, rune(lo)); joined != utf8.RuneError {
				return joined, 12, nil
			}
		}
	}
	return 0, 0, &EscapeError{Offset: i, Reason: `unpaired surrogate in \u escape`}
}

func parseHex(s string, start, n int) (uint32, bool) {
	if start+n > len(s) {
		return 0, false
	}
	var v uint32
	for _, c := range []byte(s[start : start+n]) {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | uint32(d)
	}
	return v, true
}
