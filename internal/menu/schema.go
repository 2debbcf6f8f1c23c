package menu

import (
	"fmt"
	"strings"

	"menuscope/internal/services"
)

// SchemaViolation reports a document whose required structure is missing or
// has the wrong shape.
type SchemaViolation struct {
	Path   string
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func (e *SchemaViolation) Unwrap() error { return services.ErrSchema }

type node struct {
	value any
	path  []string
}

func root(doc any) node { return node{value: doc, path: []string{"$"}} }

func (n node) child(key string) node {
	path := make([]string, len(n.path), len(n.path)+1)
	copy(path, n.path)
	return node{path: append(path, key)}
}

func (n node) String() string { return strings.Join(n.path, ".") }

func (n node) violation(reason string) *SchemaViolation {
	return &SchemaViolation{Path: n.String(), Reason: reason}
}

// requireObject returns the object stored under key, failing when it is
// absent or not an object.
func (n node) requireObject(key string) (node, map[string]any, error) {
	obj, _ := n.value.(map[string]any)
	next := n.child(key)
	raw, ok := obj[key]
	if !ok {
		return next, nil, next.violation("required key missing")
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return next, nil, next.violation(fmt.Sprintf("expected object, found %s", typeName(raw)))
	}
	next.value = m
	return next, m, nil
}

// requireList returns the list stored under key, failing when it is absent or
// not a list.
func (n node) requireList(key string) (node, []any, error) {
	obj, _ := n.value.(map[string]any)
	next := n.child(key)
	raw, ok := obj[key]
	if !ok {
		return next, nil, next.violation("required key missing")
	}
	list, ok := raw.([]any)
	if !ok {
		return next, nil, next.violation(fmt.Sprintf("expected list, found %s", typeName(raw)))
	}
	next.value = list
	return next, list, nil
}

// optionalObject returns the object under key, or nil when absent or not an
// object.
func optionalObject(value any, key string) map[string]any {
	obj, _ := value.(map[string]any)
	m, _ := obj[key].(map[string]any)
	return m
}

// optionalList returns the list under key, or nil when absent or not a list.
func optionalList(value map[string]any, key string) []any {
	list, _ := value[key].([]any)
	return list
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}
