// Package fetch downloads restaurant order pages named in a names file.
//
// Each slug is substituted into the configured URL template and fetched with
// a browser User-Agent; pages answering 200 are written as <slug>.html. The
// result notes the page title and whether the embedded catalog marker is
// present, so a bot-challenge page is visible before extraction runs.
package fetch
