package embedded

import "strings"

// Marker is the call expression that wraps the embedded catalog.
const Marker = "JSON.parse("

// Literal is the raw, still escaped argument captured from a page.
type Literal struct {
	// Text is the argument body between the quotes, exactly as it appears in
	// the page source.
	Text string
	// Offset is the byte offset of Text within the page.
	Offset int
}

// Find returns the first complete `JSON.parse("...")` argument in html.
// Escaped quotes inside the argument do not terminate it and the argument may
// span lines. Candidates that are not a single string literal followed by the
// closing parenthesis, or whose argument is empty, are skipped.
func Find(html string) (Literal, bool) {
	from := 0
	for from < len(html) {
		idx := strings.Index(html[from:], Marker)
		if idx < 0 {
			return Literal{}, false
		}
		start := from + idx + len(Marker)
		if lit, ok := scanArgument(html, start); ok {
			return lit, true
		}
		from = start
	}
	return Literal{}, false
}

// scanArgument parses `"<body>" )` starting at pos.
func scanArgument(src string, pos int) (Literal, bool) {
	i := skipSpace(src, pos)
	if i >= len(src) || src[i] != '"' {
		return Literal{}, false
	}
	bodyStart := i + 1
	for j := bodyStart; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			body := src[bodyStart:j]
			k := skipSpace(src, j+1)
			if body == "" || k >= len(src) || src[k] != ')' {
				return Literal{}, false
			}
			return Literal{Text: body, Offset: bodyStart}, true
		}
	}
	return Literal{}, false
}

func skipSpace(src string, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}
