// Package embedded locates and decodes the JSON catalog that order pages ship
// inside a `JSON.parse("...")` call.
//
// The page is treated as text, not parsed as HTML. Find applies a small
// grammar (marker token, optional whitespace, a double-quoted argument whose
// backslash escapes are honoured, then the closing parenthesis) and returns
// the first complete match. The argument is still in source form, so Decode
// unescapes it exactly once before handing it to the JSON parser.
//
// A page without the marker is not an error condition for callers: Find
// reports false and Extract returns an error matching services.ErrNotFound so
// batch code can skip the page. Decode failures carry the literal, the byte
// offset of the syntax error, and a bounded context window for diagnosis.
package embedded
