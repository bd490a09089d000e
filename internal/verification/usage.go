package verification

import (
	"fmt"
	"math"
	"time"

	"sahaya/internal/rules"
)

// usageSnapshot is what the usage ledger knows about a subject/service/
// credential triple at evaluation time.
type usageSnapshot struct {
	lastVerification time.Time
	hasPrior         bool
	countThisMonth   int
}

// monthStart returns the first instant of now's calendar month in now's
// location. Monthly caps reset on this boundary.
func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// checkUsageLimits applies cooldown and monthly-cap policy across all active
// rules for the pair. Any rule tripping a limit halts the whole decision,
// independent of rule priority. Pure domain logic - no I/O, no side effects.
func checkUsageLimits(activeRules []rules.EligibilityRule, usage usageSnapshot, now time.Time) (reason string, blocked bool) {
	for _, rule := range activeRules {
		if rule.CooldownPeriodDays > 0 && usage.hasPrior {
			elapsedDays := now.Sub(usage.lastVerification).Hours() / 24
			if elapsedDays < float64(rule.CooldownPeriodDays) {
				// Ceiling so "29.2 days left" reads as 30, never 29.
				remaining := int(math.Ceil(float64(rule.CooldownPeriodDays) - elapsedDays))
				return fmt.Sprintf("Cooldown period active. Try again in %d day(s)", remaining), true
			}
		}
		if rule.MaxUsagePerMonth > 0 && usage.countThisMonth >= rule.MaxUsagePerMonth {
			return fmt.Sprintf("Monthly usage limit (%d) reached for this service", rule.MaxUsagePerMonth), true
		}
	}
	return "", false
}

// needsUsageData reports whether any rule carries a temporal limit; when none
// does, the ledger queries are skipped entirely.
func needsUsageData(activeRules []rules.EligibilityRule) bool {
	for _, rule := range activeRules {
		if rule.CooldownPeriodDays > 0 || rule.MaxUsagePerMonth > 0 {
			return true
		}
	}
	return false
}
