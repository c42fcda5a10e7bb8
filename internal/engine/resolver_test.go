package engine

import (
	"math"
	"reflect"
	"testing"

	"pricing-rule-service/internal/entity"
)

func discountRule(id int64, value float64) entity.PriceRule {
	return entity.PriceRule{
		ID:              id,
		TenantID:        1,
		RuleType:        entity.RuleTypeDiscount,
		AdjustmentType:  entity.AdjustmentFixedAmount,
		AdjustmentValue: value,
		ProductScope:    entity.GlobalScope(),
		ZoneScope:       entity.AllZones(),
		IsStackable:     true,
		IsActive:        true,
	}
}

func contextWithBase(base float64) entity.EvaluationContext {
	ctx := saleContext()
	ctx.BasePrice = base
	return ctx
}

func TestEvaluateNoMatchingRules(t *testing.T) {
	ctx := contextWithBase(10.00)

	inactive := discountRule(1, 5)
	inactive.IsActive = false
	wrongZone := discountRule(2, 5)
	wrongZone.ZoneScope = entity.SingleZone(999)

	out := Evaluate([]entity.PriceRule{inactive, wrongZone}, ctx)
	if out.FinalPrice != 10.00 {
		t.Errorf("final price: got %v, want 10.00", out.FinalPrice)
	}
	if len(out.AppliedRules) != 0 {
		t.Errorf("applied rules: got %v, want none", out.AppliedRules)
	}
}

func TestEvaluateSingleGlobalPercentageDiscount(t *testing.T) {
	rule := discountRule(1, 10)
	rule.AdjustmentType = entity.AdjustmentPercentage

	out := Evaluate([]entity.PriceRule{rule}, contextWithBase(20.00))
	if want := []int64{1}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want %v", out.AppliedRules, want)
	}
	if want := []float64{-2.00}; !reflect.DeepEqual(out.SignedAdjustments, want) {
		t.Errorf("adjustments: got %v, want %v", out.SignedAdjustments, want)
	}
	if out.FinalPrice != 18.00 {
		t.Errorf("final price: got %v, want 18.00", out.FinalPrice)
	}
}

func TestEvaluateExclusiveBeatsStackable(t *testing.T) {
	stackable := discountRule(1, 1.00) // priority 0

	exclusive := discountRule(2, 3.00) // priority 10
	exclusive.IsStackable = false
	exclusive.IsExclusive = true
	exclusive.ZoneScope = entity.RetailZones()

	out := Evaluate([]entity.PriceRule{stackable, exclusive}, contextWithBase(10.00))
	if want := []int64{2}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want only the exclusive rule %v", out.AppliedRules, want)
	}
	if out.FinalPrice != 7.00 {
		t.Errorf("final price: got %v, want 7.00", out.FinalPrice)
	}
}

func TestEvaluateExclusiveTieBreaksByLowestID(t *testing.T) {
	a := discountRule(8, 2.00)
	a.IsStackable = false
	a.IsExclusive = true
	b := discountRule(3, 4.00)
	b.IsStackable = false
	b.IsExclusive = true

	out := Evaluate([]entity.PriceRule{a, b}, contextWithBase(10.00))
	if want := []int64{3}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want lowest-id exclusive %v", out.AppliedRules, want)
	}
	if out.FinalPrice != 6.00 {
		t.Errorf("final price: got %v, want 6.00", out.FinalPrice)
	}
}

func TestEvaluateExclusiveWinsOverStackableFlag(t *testing.T) {
	// A rule flagged both exclusive and stackable is treated as exclusive.
	contradictory := discountRule(1, 2.00)
	contradictory.IsExclusive = true
	other := discountRule(2, 1.00)

	out := Evaluate([]entity.PriceRule{contradictory, other}, contextWithBase(10.00))
	if want := []int64{1}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want %v", out.AppliedRules, want)
	}
}

func TestEvaluateSingularTieBreaksByLowestID(t *testing.T) {
	a := discountRule(5, 2.00)
	a.IsStackable = false
	b := discountRule(2, 3.00)
	b.IsStackable = false

	out := Evaluate([]entity.PriceRule{a, b}, contextWithBase(10.00))
	if want := []int64{2}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want id 2 to win the singular slot, got %v", out.AppliedRules, want)
	}
	if out.FinalPrice != 7.00 {
		t.Errorf("final price: got %v, want 7.00", out.FinalPrice)
	}
}

func TestEvaluateStackablePlusSingularWinner(t *testing.T) {
	stackA := discountRule(1, 1.00)
	stackB := discountRule(2, 0.50)

	singularLow := discountRule(3, 2.00) // priority 0
	singularLow.IsStackable = false
	singularHigh := discountRule(4, 3.00) // priority 3, wins the slot
	singularHigh.IsStackable = false
	singularHigh.ProductScope = entity.ProductScopeFor(101)

	out := Evaluate([]entity.PriceRule{stackA, stackB, singularLow, singularHigh}, contextWithBase(20.00))
	if want := []int64{1, 2, 4}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want %v", out.AppliedRules, want)
	}
	if out.FinalPrice != 15.50 {
		t.Errorf("final price: got %v, want 15.50", out.FinalPrice)
	}
}

func TestEvaluateSurchargeSign(t *testing.T) {
	surcharge := discountRule(1, 5)
	surcharge.RuleType = entity.RuleTypeSurcharge
	surcharge.AdjustmentType = entity.AdjustmentPercentage

	out := Evaluate([]entity.PriceRule{surcharge}, contextWithBase(40.00))
	if want := []float64{2.00}; !reflect.DeepEqual(out.SignedAdjustments, want) {
		t.Errorf("adjustments: got %v, want %v", out.SignedAdjustments, want)
	}
	if out.FinalPrice != 42.00 {
		t.Errorf("final price: got %v, want 42.00", out.FinalPrice)
	}
}

func TestEvaluateNeverNegative(t *testing.T) {
	a := discountRule(1, 8.00)
	b := discountRule(2, 7.00)

	out := Evaluate([]entity.PriceRule{a, b}, contextWithBase(10.00))
	if out.FinalPrice != 0 {
		t.Errorf("final price: got %v, want clamp at 0", out.FinalPrice)
	}
}

func TestEvaluateAdjustmentsAgainstOriginalBase(t *testing.T) {
	// Two 10% discounts stack to exactly 20% of the base, not 19%.
	a := discountRule(1, 10)
	a.AdjustmentType = entity.AdjustmentPercentage
	b := discountRule(2, 10)
	b.AdjustmentType = entity.AdjustmentPercentage

	out := Evaluate([]entity.PriceRule{a, b}, contextWithBase(50.00))
	if out.FinalPrice != 40.00 {
		t.Errorf("final price: got %v, want 40.00", out.FinalPrice)
	}
}

func TestEvaluatePerRuleRounding(t *testing.T) {
	// 3% of 10.15 = 0.3045, rounds to 0.30 before accumulating.
	rule := discountRule(1, 3)
	rule.AdjustmentType = entity.AdjustmentPercentage

	out := Evaluate([]entity.PriceRule{rule}, contextWithBase(10.15))
	if want := []float64{-0.30}; !reflect.DeepEqual(out.SignedAdjustments, want) {
		t.Errorf("adjustments: got %v, want %v", out.SignedAdjustments, want)
	}
	if out.FinalPrice != 9.85 {
		t.Errorf("final price: got %v, want 9.85", out.FinalPrice)
	}
}

func TestEvaluateOutputOrderedByPriority(t *testing.T) {
	product := discountRule(1, 1.00) // priority 3
	product.ProductScope = entity.ProductScopeFor(101)
	global := discountRule(2, 1.00) // priority 0
	category := discountRule(3, 1.00) // priority 1
	category.ProductScope = entity.CategoryScope(7)

	out := Evaluate([]entity.PriceRule{product, global, category}, contextWithBase(50.00))
	if want := []int64{2, 3, 1}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want ascending priority order %v", out.AppliedRules, want)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	rules := []entity.PriceRule{
		discountRule(1, 1.25),
		discountRule(2, 0.75),
	}
	rules[1].IsStackable = false
	ctx := contextWithBase(30.00)

	first := Evaluate(rules, ctx)
	second := Evaluate(rules, ctx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("evaluate is not deterministic: %+v vs %+v", first, second)
	}
}

func TestEvaluateStackingMonotonicity(t *testing.T) {
	base := []entity.PriceRule{discountRule(1, 1.00)}
	ctx := contextWithBase(25.00)
	before := Evaluate(base, ctx)

	// A matching stackable rule moves the price by exactly its adjustment.
	extra := discountRule(2, 2.50)
	after := Evaluate(append(base, extra), ctx)
	if got := RoundMoney(before.FinalPrice - after.FinalPrice); got != 2.50 {
		t.Errorf("price moved by %v, want exactly 2.50", got)
	}

	// A non-matching rule leaves the price untouched.
	miss := discountRule(3, 9.99)
	miss.ZoneScope = entity.SingleZone(999)
	unchanged := Evaluate(append(base, miss), ctx)
	if unchanged.FinalPrice != before.FinalPrice {
		t.Errorf("non-matching rule changed the price: %v vs %v", unchanged.FinalPrice, before.FinalPrice)
	}
}

func TestEvaluateMalformedRuleNeverBlocksSale(t *testing.T) {
	malformed := discountRule(1, 5)
	malformed.ProductScope = entity.ProductScope{Kind: entity.ProductScopeCategory} // missing target
	good := discountRule(2, 1.00)

	out := Evaluate([]entity.PriceRule{malformed, good}, contextWithBase(10.00))
	if want := []int64{2}; !reflect.DeepEqual(out.AppliedRules, want) {
		t.Errorf("applied rules: got %v, want the good rule only %v", out.AppliedRules, want)
	}
	if out.FinalPrice != 9.00 {
		t.Errorf("final price: got %v, want 9.00", out.FinalPrice)
	}
}

func TestPreviewIgnoresStackingFlags(t *testing.T) {
	exclusive := discountRule(1, 3.00)
	exclusive.IsStackable = false
	exclusive.IsExclusive = true
	stackable := discountRule(2, 1.00)
	singularA := discountRule(3, 0.50)
	singularA.IsStackable = false
	singularB := discountRule(4, 0.25)
	singularB.IsStackable = false

	out := Preview([]entity.PriceRule{exclusive, stackable, singularA, singularB}, contextWithBase(20.00))
	if len(out.AppliedRules) != 4 {
		t.Errorf("preview applied %d rules, want all 4 candidates", len(out.AppliedRules))
	}
	if out.FinalPrice != 15.25 {
		t.Errorf("final price: got %v, want 15.25", out.FinalPrice)
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.004, 2.00},
		{2.006, 2.01},
		{0.125, 0.13}, // exact binary half, rounds away from zero
		{-0.125, -0.13},
		{1.0, 1.0},
	}
	for _, tt := range tests {
		if got := RoundMoney(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RoundMoney(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
