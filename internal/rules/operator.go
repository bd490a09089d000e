package rules

import (
	"strings"
	"time"
)

// Operator is the closed set of condition predicates. Evaluation is
// fail-closed: any operator outside this set evaluates to false, so a policy
// typo can never widen eligibility.
type Operator string

const (
	OpEquals           Operator = "equals"
	OpNotEquals        Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpLessThan         Operator = "less_than"
	OpContains         Operator = "contains"
	OpExists           Operator = "exists"
	OpInRange          Operator = "in_range"
	OpDateValid        Operator = "date_valid"
	OpDocumentVerified Operator = "document_verified"
)

// Evaluate applies the operator to a resolved credential value. defined is
// false when path resolution fell off the document ("undefined"); a defined
// nil means the field was present but null. now anchors the temporal
// operators so callers can pin evaluation time.
func (o Operator) Evaluate(value any, defined bool, expected any, now time.Time) bool {
	switch o {
	case OpEquals:
		return defined && looseEqual(value, expected)
	case OpNotEquals:
		return defined && !looseEqual(value, expected)
	case OpGreaterThan:
		return defined && numericCompare(value, expected, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return defined && numericCompare(value, expected, func(a, b float64) bool { return a < b })
	case OpContains:
		return defined && contains(value, expected)
	case OpExists:
		return defined && value != nil
	case OpInRange:
		return defined && inRange(value, expected)
	case OpDateValid:
		return defined && dateValid(value, expected, now)
	case OpDocumentVerified:
		s, ok := value.(string)
		return defined && ok && s == "verified"
	default:
		// Unknown operators (including ones added to policy data before the
		// code catches up) must never grant.
		return false
	}
}

// looseEqual compares with numeric coercion so a rule authored with 18
// matches an attribute decoded from JSON as 18.0.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

func numericCompare(value, expected any, cmp func(a, b float64) bool) bool {
	v, vok := toFloat(value)
	e, eok := toFloat(expected)
	return vok && eok && cmp(v, e)
}

// contains is substring match for strings and membership for lists.
func contains(value, expected any) bool {
	switch v := value.(type) {
	case string:
		e, ok := expected.(string)
		return ok && strings.Contains(v, e)
	case []any:
		for _, item := range v {
			if looseEqual(item, expected) {
				return true
			}
		}
		return false
	case []string:
		e, ok := expected.(string)
		if !ok {
			return false
		}
		for _, item := range v {
			if item == e {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// inRange expects a 2-element [lo, hi] bound, inclusive on both ends.
func inRange(value, expected any) bool {
	bounds, ok := expected.([]any)
	if !ok || len(bounds) != 2 {
		return false
	}
	v, vok := toFloat(value)
	lo, lok := toFloat(bounds[0])
	hi, hok := toFloat(bounds[1])
	return vok && lok && hok && v >= lo && v <= hi
}

// dateValid passes when no more than the expected number of days has elapsed
// since the value's date. Elapsed days, not remaining: a certificate dated 40
// days ago fails a 30-day freshness window even if the document itself has
// not expired.
func dateValid(value, expected any, now time.Time) bool {
	maxDays, ok := toFloat(expected)
	if !ok {
		return false
	}
	t, ok := parseDate(value)
	if !ok {
		return false
	}
	elapsed := now.Sub(t).Hours() / 24
	return elapsed <= maxDays
}

func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
