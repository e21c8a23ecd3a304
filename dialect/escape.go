package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScalarEscape is the concrete Go shape of the "consumed" scalarEscape
// primitive of spec §6: a dialect-and-timezone-aware literal renderer for
// Go scalar values. Every Dialect's Escape method delegates here after
// handling any type-stringify override (spec §4.1).
func ScalarEscape(value interface{}, timezone string, d Dialect) (string, error) {
	switch v := value.(type) {
	case nil:
		return d.NullLiteral(), nil
	case bool:
		return d.BooleanLiteral(v), nil
	case string:
		return quoteString(v), nil
	case []byte:
		return d.BytesLiteral(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case time.Time:
		return quoteString(formatTimestamp(v, timezone)), nil
	case []interface{}:
		parts := make([]string, len(v))
		for i, el := range v {
			s, err := ScalarEscape(el, timezone, d)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", fmt.Errorf("sqlgen: %s cannot escape value of type %T", d.Name(), value)
	}
}

func formatFloat(f float64) (string, error) {
	if f != f { // NaN
		return "", fmt.Errorf("sqlgen: cannot escape NaN")
	}
	if f > 1.7976931348623157e+308 || f < -1.7976931348623157e+308 {
		return "", fmt.Errorf("sqlgen: cannot escape infinite float")
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// quoteString single-quotes s, doubling any internal single quote and
// escaping backslashes, matching the generic SQL string-literal escaping
// convention all four built-in dialects share.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// formatTimestamp renders t as an ISO-8601 timestamp, converted to
// timezone when non-empty.
func formatTimestamp(t time.Time, timezone string) string {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			t = t.In(loc)
		}
	}
	return t.Format("2006-01-02 15:04:05.000 -07:00")
}
