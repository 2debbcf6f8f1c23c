package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDecode            = errors.New("decode failure")
	ErrSchema            = errors.New("schema violation")
	ErrEstimator         = errors.New("estimator failure")
	ErrDivisionUndefined = errors.New("division undefined")
	ErrConfiguration     = errors.New("configuration error")
	ErrTimeout           = errors.New("timeout")
	ErrTransient         = errors.New("transient failure")
)

// Kind names the failure class used in batch summaries and log fields.
type Kind string

const (
	KindOK        Kind = "ok"
	KindNotFound  Kind = "not_found"
	KindDecode    Kind = "decode_failure"
	KindSchema    Kind = "schema_violation"
	KindEstimator Kind = "estimator_failure"
	KindUndefined Kind = "division_undefined"
	KindConfig    Kind = "configuration"
	KindTimeout   Kind = "timeout"
	KindTransient Kind = "transient"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error to the summary kind reported for a batch item.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrSchema):
		return KindSchema
	case errors.Is(err, ErrEstimator):
		return KindEstimator
	case errors.Is(err, ErrDivisionUndefined):
		return KindUndefined
	case errors.Is(err, ErrConfiguration):
		return KindConfig
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindTransient
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
