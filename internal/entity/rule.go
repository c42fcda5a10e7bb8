package entity

import (
	"fmt"
	"strconv"
	"strings"
)

type RuleType string

const (
	RuleTypeDiscount  RuleType = "discount"
	RuleTypeSurcharge RuleType = "surcharge"
)

type AdjustmentType string

const (
	AdjustmentPercentage  AdjustmentType = "percentage"
	AdjustmentFixedAmount AdjustmentType = "fixed_amount"
)

type ProductScopeKind string

const (
	ProductScopeGlobal   ProductScopeKind = "global"
	ProductScopeCategory ProductScopeKind = "category"
	ProductScopeTag      ProductScopeKind = "tag"
	ProductScopeProduct  ProductScopeKind = "product"
)

// ProductScope narrows a rule to part of the catalog. TargetID is required
// for every kind except global; a non-global scope with a zero TargetID is
// malformed and never matches.
type ProductScope struct {
	Kind     ProductScopeKind `json:"kind"`
	TargetID int64            `json:"target_id,omitempty"`
}

func GlobalScope() ProductScope {
	return ProductScope{Kind: ProductScopeGlobal}
}

func CategoryScope(categoryID int64) ProductScope {
	return ProductScope{Kind: ProductScopeCategory, TargetID: categoryID}
}

func TagScope(tagID int64) ProductScope {
	return ProductScope{Kind: ProductScopeTag, TargetID: tagID}
}

func ProductScopeFor(productID int64) ProductScope {
	return ProductScope{Kind: ProductScopeProduct, TargetID: productID}
}

func (s ProductScope) Valid() bool {
	switch s.Kind {
	case ProductScopeGlobal:
		return true
	case ProductScopeCategory, ProductScopeTag, ProductScopeProduct:
		return s.TargetID != 0
	default:
		return false
	}
}

type ZoneScopeKind string

const (
	ZoneScopeAll    ZoneScopeKind = "all"
	ZoneScopeRetail ZoneScopeKind = "retail"
	ZoneScopeZone   ZoneScopeKind = "zone"
)

// ZoneScope narrows a rule to the sale zones it covers.
type ZoneScope struct {
	Kind   ZoneScopeKind `json:"kind"`
	ZoneID int64         `json:"zone_id,omitempty"`
}

func AllZones() ZoneScope {
	return ZoneScope{Kind: ZoneScopeAll}
}

func RetailZones() ZoneScope {
	return ZoneScope{Kind: ZoneScopeRetail}
}

func SingleZone(zoneID int64) ZoneScope {
	return ZoneScope{Kind: ZoneScopeZone, ZoneID: zoneID}
}

func (s ZoneScope) Valid() bool {
	switch s.Kind {
	case ZoneScopeAll, ZoneScopeRetail:
		return true
	case ZoneScopeZone:
		return s.ZoneID != 0
	default:
		return false
	}
}

// PriceRule is a tenant-configured discount or surcharge definition. Rules
// are authored by the admin console and only ever read here; the engine
// receives them as an immutable snapshot per evaluation.
type PriceRule struct {
	ID              int64          `json:"id"`
	TenantID        int64          `json:"tenant_id"`
	RuleType        RuleType       `json:"rule_type"`
	AdjustmentType  AdjustmentType `json:"adjustment_type"`
	AdjustmentValue float64        `json:"adjustment_value"`
	ProductScope    ProductScope   `json:"product_scope"`
	ZoneScope       ZoneScope      `json:"zone_scope"`
	ActiveDays      []int          `json:"active_days"` // weekday indices 0-6, 0 = Sunday; empty = every day
	ActiveStartTime string         `json:"active_start_time,omitempty"`
	ActiveEndTime   string         `json:"active_end_time,omitempty"`
	ValidFrom       *int64         `json:"valid_from,omitempty"`  // inclusive epoch millis
	ValidUntil      *int64         `json:"valid_until,omitempty"` // inclusive epoch millis
	IsStackable     bool           `json:"is_stackable"`
	IsExclusive     bool           `json:"is_exclusive"`
	IsActive        bool           `json:"is_active"`
	ReceiptName     string         `json:"receipt_name"`
}

// ActiveOnDay reports whether the rule is active on the given weekday.
// An empty ActiveDays set means every day.
func (r PriceRule) ActiveOnDay(weekday int) bool {
	if len(r.ActiveDays) == 0 {
		return true
	}
	for _, d := range r.ActiveDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// ParseClockTime parses an "HH:MM" 24-hour wall-clock bound into minutes
// since midnight.
func ParseClockTime(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatActiveDays renders the weekday set as the CSV form stored in the
// price_rules table, e.g. "0,6".
func FormatActiveDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

// ParseActiveDays parses the CSV weekday set back from storage. Unknown or
// out-of-range entries are dropped rather than failing the whole rule.
func ParseActiveDays(csv string) []int {
	if csv == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(csv, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			continue
		}
		days = append(days, d)
	}
	return days
}
