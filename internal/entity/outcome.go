package entity

// MatchResult pairs a candidate rule with its specificity priority for one
// evaluation. Transient; never stored.
type MatchResult struct {
	Rule     PriceRule
	Priority int
}

// AdjustmentOutcome is the engine's sole output. AppliedRules and
// SignedAdjustments are parallel lists ordered by ascending rule priority.
// Built once per evaluation and never mutated.
type AdjustmentOutcome struct {
	AppliedRules      []int64   `json:"applied_rules"`
	SignedAdjustments []float64 `json:"signed_adjustments"`
	FinalPrice        float64   `json:"final_price"`
}
