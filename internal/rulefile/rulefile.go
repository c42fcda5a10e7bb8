package rulefile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pricing-rule-service/internal/entity"
)

// FileRuleSource serves rule snapshots from a YAML fixture instead of the
// sharded databases. Used by offline terminals and local development, where
// a rule file is provisioned next to the binary.
type FileRuleSource struct {
	path string
}

func NewFileRuleSource(path string) *FileRuleSource {
	return &FileRuleSource{path: path}
}

type ruleDoc struct {
	Rules []ruleYAML `yaml:"rules"`
}

type ruleYAML struct {
	ID              int64   `yaml:"id"`
	TenantID        int64   `yaml:"tenant_id"`
	RuleType        string  `yaml:"rule_type"`
	AdjustmentType  string  `yaml:"adjustment_type"`
	AdjustmentValue float64 `yaml:"adjustment_value"`
	ProductScope    string  `yaml:"product_scope"`
	ProductTargetID int64   `yaml:"product_target_id"`
	ZoneScope       string  `yaml:"zone_scope"`
	ZoneID          int64   `yaml:"zone_id"`
	ActiveDays      []int   `yaml:"active_days"`
	ActiveStartTime string  `yaml:"active_start_time"`
	ActiveEndTime   string  `yaml:"active_end_time"`
	ValidFrom       *int64  `yaml:"valid_from"`
	ValidUntil      *int64  `yaml:"valid_until"`
	IsStackable     bool    `yaml:"is_stackable"`
	IsExclusive     bool    `yaml:"is_exclusive"`
	IsActive        bool    `yaml:"is_active"`
	ReceiptName     string  `yaml:"receipt_name"`
}

func (r ruleYAML) toEntity() entity.PriceRule {
	return entity.PriceRule{
		ID:              r.ID,
		TenantID:        r.TenantID,
		RuleType:        entity.RuleType(r.RuleType),
		AdjustmentType:  entity.AdjustmentType(r.AdjustmentType),
		AdjustmentValue: r.AdjustmentValue,
		ProductScope:    entity.ProductScope{Kind: entity.ProductScopeKind(r.ProductScope), TargetID: r.ProductTargetID},
		ZoneScope:       entity.ZoneScope{Kind: entity.ZoneScopeKind(r.ZoneScope), ZoneID: r.ZoneID},
		ActiveDays:      r.ActiveDays,
		ActiveStartTime: r.ActiveStartTime,
		ActiveEndTime:   r.ActiveEndTime,
		ValidFrom:       r.ValidFrom,
		ValidUntil:      r.ValidUntil,
		IsStackable:     r.IsStackable,
		IsExclusive:     r.IsExclusive,
		IsActive:        r.IsActive,
		ReceiptName:     r.ReceiptName,
	}
}

// ListActiveRules loads the fixture and filters to the tenant's active
// rules. A tenant_id of 0 in the file means the rule applies to every
// tenant, which keeps single-tenant dev fixtures short.
func (f *FileRuleSource) ListActiveRules(ctx context.Context, tenantID int64) ([]entity.PriceRule, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var doc ruleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", f.path, err)
	}

	var rules []entity.PriceRule
	for _, r := range doc.Rules {
		if !r.IsActive {
			continue
		}
		if r.TenantID != 0 && r.TenantID != tenantID {
			continue
		}
		rule := r.toEntity()
		rule.TenantID = tenantID
		rules = append(rules, rule)
	}
	return rules, nil
}
