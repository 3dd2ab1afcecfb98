// Package segmentation selects the contacts of a campaign from the static
// dataset. Rules are (field, operator, value) triples combined with AND;
// evaluation is pure and never fails on malformed values.
package segmentation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ignite/reachpoint/internal/domain"
)

// comparator evaluates one operator on a row value and a rule value.
type comparator func(field any, rule string) bool

var comparators = map[domain.FilterOp]comparator{
	domain.OpEquals: func(a any, b string) bool {
		return strings.ToLower(ToString(a)) == strings.ToLower(b)
	},
	domain.OpContains: func(a any, b string) bool {
		return strings.Contains(strings.ToLower(ToString(a)), strings.ToLower(b))
	},
	domain.OpGt:  func(a any, b string) bool { return ToNumber(a) > ToNumber(b) },
	domain.OpGte: func(a any, b string) bool { return ToNumber(a) >= ToNumber(b) },
	domain.OpLt:  func(a any, b string) bool { return ToNumber(a) < ToNumber(b) },
	domain.OpLte: func(a any, b string) bool { return ToNumber(a) <= ToNumber(b) },
}

// comparatorFor falls back to equality for unknown operators.
func comparatorFor(op domain.FilterOp) comparator {
	if c, ok := comparators[op]; ok {
		return c
	}
	return comparators[domain.OpEquals]
}

// ToString renders a dataset value as display text. nil renders as "".
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber coerces a dataset value to a number. Values that are not numeric
// (including a missing field) yield NaN, so every comparison against them
// is false. Blank strings coerce to 0.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case json.Number:
		return parseNumber(t.String())
	case string:
		return parseNumber(t)
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.ContainsAny(s, "_iInN") && !strings.HasPrefix(strings.ToLower(s), "0x") {
		// Rejects Go-only spellings such as "inf", "NaN" and digit separators.
		return math.NaN()
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
