package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pricing-rule-service/internal/entity"
	"pricing-rule-service/internal/sharding"
)

// RuleRepository reads price rules from the tenant-sharded MySQL databases.
// Rule writes belong to the admin console; this side only ever loads
// snapshots for evaluation.
type RuleRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewRuleRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *RuleRepository {
	return &RuleRepository{dbShards, router}
}

const ruleColumns = `id, tenant_id, rule_type, adjustment_type, adjustment_value,
		product_scope, product_target_id, zone_scope, zone_id,
		active_days, active_start_time, active_end_time,
		valid_from, valid_until, is_stackable, is_exclusive, is_active, receipt_name`

// ListActiveRules loads the tenant's active rule snapshot. The returned
// slice is owned by the caller; nothing here retains it.
func (r *RuleRepository) ListActiveRules(ctx context.Context, tenantID int64) ([]entity.PriceRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM price_rules WHERE tenant_id = ? AND is_active = TRUE ORDER BY id`

	dbIndex := r.router.GetShard(tenantID)
	db := r.dbShards[dbIndex]

	rows, err := db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []entity.PriceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// GetRuleByID fetches one rule for display lookups (receipt names, line
// item detail). Inactive rules are returned too so the console can show
// them.
func (r *RuleRepository) GetRuleByID(ctx context.Context, tenantID, id int64) (*entity.PriceRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM price_rules WHERE tenant_id = ? AND id = ?`

	dbIndex := r.router.GetShard(tenantID)
	db := r.dbShards[dbIndex]

	rule, err := scanRule(db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("price rule %d not found for tenant %d", id, tenantID)
		}
		return nil, err
	}
	return &rule, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (entity.PriceRule, error) {
	var (
		rule            entity.PriceRule
		productTargetID sql.NullInt64
		zoneID          sql.NullInt64
		activeDays      sql.NullString
		startTime       sql.NullString
		endTime         sql.NullString
		validFrom       sql.NullInt64
		validUntil      sql.NullInt64
	)

	err := row.Scan(
		&rule.ID, &rule.TenantID, &rule.RuleType, &rule.AdjustmentType, &rule.AdjustmentValue,
		&rule.ProductScope.Kind, &productTargetID, &rule.ZoneScope.Kind, &zoneID,
		&activeDays, &startTime, &endTime,
		&validFrom, &validUntil, &rule.IsStackable, &rule.IsExclusive, &rule.IsActive, &rule.ReceiptName,
	)
	if err != nil {
		return entity.PriceRule{}, err
	}

	rule.ProductScope.TargetID = productTargetID.Int64
	rule.ZoneScope.ZoneID = zoneID.Int64
	rule.ActiveDays = entity.ParseActiveDays(activeDays.String)
	rule.ActiveStartTime = startTime.String
	rule.ActiveEndTime = endTime.String
	if validFrom.Valid {
		rule.ValidFrom = &validFrom.Int64
	}
	if validUntil.Valid {
		rule.ValidUntil = &validUntil.Int64
	}

	return rule, nil
}
