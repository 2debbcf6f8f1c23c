package logging

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are rendered first, in this order, when present.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	"estimator",
	"model",
	"status",
	"kind",
	"records",
	"menus",
	"dishes",
	"estimates",
	"files",
	"succeeded",
	"failed",
	"skipped",
	"offset",
	"context",
	"output",
	"elapsed",
}

const maxInfoValueLen = 160

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		val := formatValueForKey(attr.key, attr.value)
		if shouldHideInfoValue(attr.key, val) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

// formatValueForKey applies friendlier formatting based on the key name.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()

	if v.Kind() == slog.KindDuration {
		return formatDurationHuman(v.Duration())
	}
	if strings.HasSuffix(key, "_bytes") && v.Kind() == slog.KindInt64 {
		return humanize.IBytes(uint64(max(v.Int64(), 0)))
	}
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}

	value := renderValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldSubject, FieldStage:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "user_agent", "prompt", "raw":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", FieldErrorHint, "context":
		return false
	}
	return len(value) > maxInfoValueLen
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldImpact:
		return "Impact"
	case "url":
		return "URL"
	case "image_url":
		return "Image"
	case "records":
		return "Items"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
