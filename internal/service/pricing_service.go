package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"pricing-rule-service/internal/engine"
	"pricing-rule-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const snapshotTTL = 5 * time.Minute

// RuleSource supplies the immutable rule snapshot for one tenant (use an
// interface to allow mocking; implemented by the MySQL repository and the
// file-based dev source).
type RuleSource interface {
	ListActiveRules(ctx context.Context, tenantID int64) ([]entity.PriceRule, error)
}

// PricingService loads rule snapshots, runs the adjustment engine and
// publishes evaluation audit events.
type PricingService struct {
	ruleSource  RuleSource
	rdb         *redis.Client
	kafkaWriter *kafka.Writer
}

func NewPricingService(ruleSource RuleSource, rdb *redis.Client, kafkaWriter *kafka.Writer) *PricingService {
	return &PricingService{
		ruleSource:  ruleSource,
		rdb:         rdb,
		kafkaWriter: kafkaWriter,
	}
}

// ReceiptLine is one applied rule rendered for the cart display and the
// receipt printer.
type ReceiptLine struct {
	RuleID      int64   `json:"rule_id"`
	ReceiptName string  `json:"receipt_name"`
	Adjustment  float64 `json:"adjustment"`
}

// PricingResult is the service-level response: the engine outcome plus the
// receipt lines the checkout renderer needs.
type PricingResult struct {
	TenantID          int64         `json:"tenant_id"`
	BasePrice         float64       `json:"base_price"`
	FinalPrice        float64       `json:"final_price"`
	AppliedRules      []int64       `json:"applied_rules"`
	SignedAdjustments []float64     `json:"signed_adjustments"`
	ReceiptLines      []ReceiptLine `json:"receipt_lines"`
}

// EvaluatePrice prices one sale event: snapshot load, conflict resolution,
// audit event. The engine itself never fails; only snapshot loading can.
func (s *PricingService) EvaluatePrice(ctx context.Context, tenantID int64, evalCtx entity.EvaluationContext) (*PricingResult, error) {
	rules, err := s.loadSnapshot(ctx, tenantID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading rule snapshot for tenant %d", tenantID)
		return nil, err
	}

	outcome := engine.Evaluate(rules, evalCtx)
	result := buildResult(tenantID, evalCtx, outcome, rules)

	if err := s.publishEvaluatedEvent(ctx, evalCtx, result); err != nil {
		// Audit delivery must not fail the sale.
		logger.Error().Err(err).Msgf("Error publishing pricing event for tenant %d", tenantID)
	}

	return result, nil
}

// PreviewPrice sums every matching rule regardless of stacking and
// exclusivity flags. This backs the admin console's what-if view; it is
// never used for checkout and is not audited.
func (s *PricingService) PreviewPrice(ctx context.Context, tenantID int64, evalCtx entity.EvaluationContext) (*PricingResult, error) {
	rules, err := s.loadSnapshot(ctx, tenantID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading rule snapshot for tenant %d", tenantID)
		return nil, err
	}

	outcome := engine.Preview(rules, evalCtx)
	return buildResult(tenantID, evalCtx, outcome, rules), nil
}

// GetRule looks one rule up from the tenant's snapshot, for line-item
// display.
func (s *PricingService) GetRule(ctx context.Context, tenantID, ruleID int64) (*entity.PriceRule, error) {
	rules, err := s.loadSnapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID == ruleID {
			return &rules[i], nil
		}
	}
	return nil, fmt.Errorf("price rule %d not found for tenant %d", ruleID, tenantID)
}

// InvalidateSnapshot drops the tenant's cached snapshot. Called by the
// rule-event consumer when the admin console changes a rule.
func (s *PricingService) InvalidateSnapshot(ctx context.Context, tenantID int64) error {
	if s.rdb == nil {
		return nil
	}
	key := snapshotKey(tenantID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error invalidating snapshot for tenant %d", tenantID)
		return err
	}
	logger.Info().Msgf("Invalidated rule snapshot for tenant %d", tenantID)
	return nil
}

func snapshotKey(tenantID int64) string {
	return fmt.Sprintf("rule-snapshot:%d", tenantID)
}

// loadSnapshot reads the tenant's rule snapshot through the redis cache,
// falling back to the rule source. A cache outage degrades to source reads
// instead of failing the sale.
func (s *PricingService) loadSnapshot(ctx context.Context, tenantID int64) ([]entity.PriceRule, error) {
	useCache := s.rdb != nil && os.Getenv("ENV") != "test"

	key := snapshotKey(tenantID)
	if useCache {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				logger.Info().Msgf("Rule snapshot for tenant %d not in cache", tenantID)
			} else {
				logger.Error().Err(err).Msgf("Error reading snapshot cache for tenant %d", tenantID)
			}
		} else if cached != "" {
			var rules []entity.PriceRule
			if err := json.Unmarshal([]byte(cached), &rules); err == nil {
				return rules, nil
			}
			logger.Error().Err(err).Msgf("Error unmarshalling cached snapshot for tenant %d", tenantID)
		}
	}

	rules, err := s.ruleSource.ListActiveRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if useCache {
		encoded, err := json.Marshal(rules)
		if err == nil {
			if err := s.rdb.Set(ctx, key, encoded, snapshotTTL).Err(); err != nil {
				logger.Error().Err(err).Msgf("Error caching snapshot for tenant %d", tenantID)
			}
		}
	}

	return rules, nil
}

func buildResult(tenantID int64, evalCtx entity.EvaluationContext, outcome entity.AdjustmentOutcome, rules []entity.PriceRule) *PricingResult {
	byID := make(map[int64]entity.PriceRule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	lines := make([]ReceiptLine, 0, len(outcome.AppliedRules))
	for i, id := range outcome.AppliedRules {
		lines = append(lines, ReceiptLine{
			RuleID:      id,
			ReceiptName: byID[id].ReceiptName,
			Adjustment:  outcome.SignedAdjustments[i],
		})
	}

	return &PricingResult{
		TenantID:          tenantID,
		BasePrice:         evalCtx.BasePrice,
		FinalPrice:        outcome.FinalPrice,
		AppliedRules:      outcome.AppliedRules,
		SignedAdjustments: outcome.SignedAdjustments,
		ReceiptLines:      lines,
	}
}

type evaluatedEvent struct {
	TenantID     int64   `json:"tenant_id"`
	ProductID    int64   `json:"product_id"`
	ZoneID       int64   `json:"zone_id"`
	BasePrice    float64 `json:"base_price"`
	FinalPrice   float64 `json:"final_price"`
	AppliedRules []int64 `json:"applied_rules"`
	EvalTime     int64   `json:"eval_time"`
}

func (s *PricingService) publishEvaluatedEvent(ctx context.Context, evalCtx entity.EvaluationContext, result *PricingResult) error {
	// if env is set to test, skip publishing
	if os.Getenv("ENV") == "test" || s.kafkaWriter == nil {
		return nil
	}

	event := evaluatedEvent{
		TenantID:     result.TenantID,
		ProductID:    evalCtx.ProductID,
		ZoneID:       evalCtx.ZoneID,
		BasePrice:    result.BasePrice,
		FinalPrice:   result.FinalPrice,
		AppliedRules: result.AppliedRules,
		EvalTime:     evalCtx.EvalTime,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("pricing.evaluated.%d", result.TenantID)),
		Value: eventJSON,
	}

	return s.kafkaWriter.WriteMessages(ctx, msg)
}
