package engine

import (
	"math"
	"sort"

	"pricing-rule-service/internal/entity"
)

// Evaluate resolves which of the tenant's rules apply to one sale context
// and computes the adjusted price. It is a pure function over the snapshot
// it is handed: no clock, no store, no error path. Rules the matcher
// rejects (including malformed ones) are silently dropped.
//
// Resolution order:
//  1. filter to candidates;
//  2. if any candidate is exclusive, exactly one rule applies: the
//     exclusive candidate with the highest priority, lowest id on ties;
//  3. otherwise all stackable candidates apply, plus at most one
//     non-stackable candidate (highest priority, lowest id on ties);
//  4. each applied rule's adjustment is computed against the original base
//     price and rounded to 2 decimal places before accumulating, so the
//     monetary result is independent of application order.
//
// The final price is clamped at zero; it is never negative.
func Evaluate(rules []entity.PriceRule, ctx entity.EvaluationContext) entity.AdjustmentOutcome {
	candidates := collectCandidates(rules, ctx)
	if len(candidates) == 0 {
		return entity.AdjustmentOutcome{FinalPrice: ctx.BasePrice}
	}

	var applied []entity.MatchResult
	if exclusive := pickWinner(candidates, func(m entity.MatchResult) bool { return m.Rule.IsExclusive }); exclusive != nil {
		applied = []entity.MatchResult{*exclusive}
	} else {
		for _, c := range candidates {
			if c.Rule.IsStackable {
				applied = append(applied, c)
			}
		}
		singular := pickWinner(candidates, func(m entity.MatchResult) bool {
			return !m.Rule.IsStackable && !m.Rule.IsExclusive
		})
		if singular != nil {
			applied = append(applied, *singular)
		}
	}

	return compose(applied, ctx)
}

// Preview sums the adjustments of every candidate rule, ignoring the
// stacking and exclusivity flags. This mirrors the admin console's
// what-if preview; checkout pricing must use Evaluate.
func Preview(rules []entity.PriceRule, ctx entity.EvaluationContext) entity.AdjustmentOutcome {
	candidates := collectCandidates(rules, ctx)
	if len(candidates) == 0 {
		return entity.AdjustmentOutcome{FinalPrice: ctx.BasePrice}
	}
	return compose(candidates, ctx)
}

func collectCandidates(rules []entity.PriceRule, ctx entity.EvaluationContext) []entity.MatchResult {
	var candidates []entity.MatchResult
	for _, r := range rules {
		if IsCandidate(r, ctx) {
			candidates = append(candidates, entity.MatchResult{Rule: r, Priority: Priority(r)})
		}
	}
	return candidates
}

// pickWinner selects the highest-priority match passing the filter,
// breaking ties by the lowest rule id so selection is reproducible.
func pickWinner(candidates []entity.MatchResult, keep func(entity.MatchResult) bool) *entity.MatchResult {
	var winner *entity.MatchResult
	for i := range candidates {
		c := &candidates[i]
		if !keep(*c) {
			continue
		}
		if winner == nil || beats(*c, *winner) {
			winner = c
		}
	}
	return winner
}

func beats(a, b entity.MatchResult) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Rule.ID < b.Rule.ID
}

func compose(applied []entity.MatchResult, ctx entity.EvaluationContext) entity.AdjustmentOutcome {
	// Least specific first; only affects output ordering, not the money,
	// since every adjustment is taken against the original base price.
	sort.Slice(applied, func(i, j int) bool {
		if applied[i].Priority != applied[j].Priority {
			return applied[i].Priority < applied[j].Priority
		}
		return applied[i].Rule.ID < applied[j].Rule.ID
	})

	outcome := entity.AdjustmentOutcome{
		AppliedRules:      make([]int64, 0, len(applied)),
		SignedAdjustments: make([]float64, 0, len(applied)),
	}
	total := 0.0
	for _, m := range applied {
		magnitude := m.Rule.AdjustmentValue
		if m.Rule.AdjustmentType == entity.AdjustmentPercentage {
			magnitude = ctx.BasePrice * m.Rule.AdjustmentValue / 100
		}
		signed := magnitude
		if m.Rule.RuleType == entity.RuleTypeDiscount {
			signed = -magnitude
		}
		signed = RoundMoney(signed)
		outcome.AppliedRules = append(outcome.AppliedRules, m.Rule.ID)
		outcome.SignedAdjustments = append(outcome.SignedAdjustments, signed)
		total += signed
	}

	final := RoundMoney(ctx.BasePrice + total)
	if final < 0 {
		final = 0
	}
	outcome.FinalPrice = final
	return outcome
}

// RoundMoney rounds a monetary amount to 2 decimal places, half away from
// zero.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
