package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// plainValue renders v without quoting, for header parts such as the
// component and subject.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return renderValue(v)
}

// renderValue renders a field value for the console. Nutrition averages are
// rounded to two decimals and string lists (vitamins, minerals, estimator
// names) are joined with commas.
func renderValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return formatFloat(v.Float64())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(time.TimeOnly)
	}
	switch x := v.Any().(type) {
	case error:
		return x.Error()
	case json.Number:
		return x.String()
	case []string:
		if len(x) == 0 {
			return "none"
		}
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// consoleTimestamp is the clock time of a record. Runs are short, so the date
// is left to the JSON log file.
func consoleTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.In(time.Local).Format("15:04:05.000")
}
