package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// StemName returns the base name of path without its final extension(s)
// listed in exts, e.g. StemName("/x/protein-chef.nutrition.json", ".nutrition.json").
func StemName(path string, exts ...string) string {
	base := filepath.Base(path)
	for _, ext := range exts {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayName turns a restaurant slug such as "protein-chef-1-koramangala"
// into "Protein Chef 1 Koramangala".
func DisplayName(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	// Casers carry state and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
