package engine

import (
	"pricing-rule-service/internal/entity"
)

// Priority scores how narrowly a rule targets its zone and product scopes.
// Higher is more specific. The score is the sole ordering key for conflict
// resolution and tie-breaking; it always lands in [0, 23] and is recomputed
// on every evaluation since it is purely derived from the rule.
func Priority(rule entity.PriceRule) int {
	return zoneWeight(rule.ZoneScope)*10 + productWeight(rule.ProductScope)
}

func zoneWeight(scope entity.ZoneScope) int {
	switch scope.Kind {
	case entity.ZoneScopeRetail:
		return 1
	case entity.ZoneScopeZone:
		return 2
	default:
		return 0
	}
}

func productWeight(scope entity.ProductScope) int {
	switch scope.Kind {
	case entity.ProductScopeCategory:
		return 1
	case entity.ProductScopeTag:
		return 2
	case entity.ProductScopeProduct:
		return 3
	default:
		return 0
	}
}
