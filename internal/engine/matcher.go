package engine

import (
	"pricing-rule-service/internal/entity"
)

// IsCandidate reports whether a rule applies to the given sale context.
// A rule is a candidate only if it is active, its zone and product scopes
// match, and the evaluation instant falls inside its date range, weekday set
// and time-of-day window.
//
// Malformed rules (missing scope target, adjustment value out of range, a
// half-open time window) are treated as non-matching rather than as errors:
// a single bad rule must never block a sale. Validation proper belongs to
// the rule-authoring console.
func IsCandidate(rule entity.PriceRule, ctx entity.EvaluationContext) bool {
	if !rule.IsActive {
		return false
	}
	if !adjustmentInRange(rule) {
		return false
	}
	if !zoneMatches(rule.ZoneScope, ctx) {
		return false
	}
	if !productMatches(rule.ProductScope, ctx) {
		return false
	}
	if rule.ValidFrom != nil && ctx.EvalTime < *rule.ValidFrom {
		return false
	}
	if rule.ValidUntil != nil && ctx.EvalTime > *rule.ValidUntil {
		return false
	}
	if !rule.ActiveOnDay(ctx.Weekday) {
		return false
	}
	return timeWindowMatches(rule, ctx.MinuteOfDay)
}

func adjustmentInRange(rule entity.PriceRule) bool {
	if rule.AdjustmentValue < 0 {
		return false
	}
	if rule.AdjustmentType == entity.AdjustmentPercentage && rule.AdjustmentValue > 100 {
		return false
	}
	return true
}

func zoneMatches(scope entity.ZoneScope, ctx entity.EvaluationContext) bool {
	switch scope.Kind {
	case entity.ZoneScopeAll:
		return true
	case entity.ZoneScopeRetail:
		return ctx.IsRetail
	case entity.ZoneScopeZone:
		return scope.ZoneID != 0 && ctx.ZoneID == scope.ZoneID
	default:
		return false
	}
}

func productMatches(scope entity.ProductScope, ctx entity.EvaluationContext) bool {
	if !scope.Valid() {
		return false
	}
	switch scope.Kind {
	case entity.ProductScopeGlobal:
		return true
	case entity.ProductScopeCategory:
		return ctx.CategoryID == scope.TargetID
	case entity.ProductScopeTag:
		return ctx.HasTag(scope.TargetID)
	case entity.ProductScopeProduct:
		return ctx.ProductID == scope.TargetID
	default:
		return false
	}
}

// timeWindowMatches checks the inclusive start <= t <= end window. Both
// bounds must be present; a rule with only one bound is malformed and never
// matches. Overnight windows (end before start) are not supported -- a rule
// spanning midnight has to be expressed as two rules.
func timeWindowMatches(rule entity.PriceRule, minuteOfDay int) bool {
	if rule.ActiveStartTime == "" && rule.ActiveEndTime == "" {
		return true
	}
	if rule.ActiveStartTime == "" || rule.ActiveEndTime == "" {
		return false
	}
	start, err := entity.ParseClockTime(rule.ActiveStartTime)
	if err != nil {
		return false
	}
	end, err := entity.ParseClockTime(rule.ActiveEndTime)
	if err != nil {
		return false
	}
	if end < start {
		return false
	}
	return start <= minuteOfDay && minuteOfDay <= end
}
