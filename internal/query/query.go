// Package query evaluates jq expressions over decoded menu documents.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/itchyny/gojq"

	"menuscope/internal/services"
)

// ErrInvalidExpression marks jq parse and compile failures.
var ErrInvalidExpression = errors.New("invalid jq expression")

// Run evaluates expr against doc and returns every emitted value. Evaluation
// stops at the first runtime error, or after limit values when limit > 0.
func Run(ctx context.Context, doc any, expr string, limit int) ([]any, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}

	values := make([]any, 0)
	iter := code.RunWithContext(ctx, normalize(doc))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return values, services.Wrap(services.ErrDecode, "query", "evaluate", expr, err)
		}
		values = append(values, v)
		if limit > 0 && len(values) >= limit {
			break
		}
	}
	return values, nil
}

// normalize converts json.Number leaves into the numeric types gojq accepts,
// preferring int when the literal is integral.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	default:
		return v
	}
}
