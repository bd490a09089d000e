package rules

import (
	"fmt"
	"time"

	"sahaya/internal/credential"
)

// ConditionOutcome records one condition's evaluation against a credential.
type ConditionOutcome struct {
	Condition Condition
	Passed    bool
}

// EvaluateConditions runs every condition of a rule, in order, against the
// credential. This is pure domain logic - no I/O, no side effects. Critical
// failures are returned separately from warning messages so the orchestrator
// can deny on the former and merely annotate with the latter.
func EvaluateConditions(cred *credential.Credential, conds []Condition, now time.Time) (failed []ConditionOutcome, warnings []string) {
	for _, cond := range conds {
		value, defined := cred.Resolve(cond.FieldPath)
		passed := cond.Operator.Evaluate(value, defined, cond.Expected, now)
		if passed {
			continue
		}
		if cond.Severity == SeverityWarning {
			warnings = append(warnings, warningMessage(cond))
			continue
		}
		failed = append(failed, ConditionOutcome{Condition: cond, Passed: false})
	}
	return failed, warnings
}

func warningMessage(cond Condition) string {
	if cond.Description != "" {
		return cond.Description
	}
	return fmt.Sprintf("condition on %s (%s) not satisfied", cond.FieldPath, cond.Operator)
}

// FailureReason renders a human-readable denial for the first critical
// failure of a rule.
func FailureReason(outcome ConditionOutcome) string {
	cond := outcome.Condition
	if cond.Description != "" {
		return fmt.Sprintf("Not eligible: %s", cond.Description)
	}
	return fmt.Sprintf("Not eligible: condition on %s (%s) not satisfied", cond.FieldPath, cond.Operator)
}
