package consumer

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"pricing-rule-service/internal/config"
	"pricing-rule-service/internal/service"
)

type Consumer struct {
	pricingSvc *service.PricingService
}

func NewConsumer(pricingSvc *service.PricingService) *Consumer {
	return &Consumer{pricingSvc: pricingSvc}
}

// StartKafkaConsumer listens for rule-change events published by the admin
// console after its CRUD writes and drops the affected tenant's cached rule
// snapshot, so the next evaluation sees fresh rules.
func (c *Consumer) StartKafkaConsumer() {
	ruleReader := config.NewKafkaReader("price-rule-topic", "pricing-service-group")

	for {
		ctx := context.Background()
		msg, err := ruleReader.ReadMessage(ctx)
		if err != nil {
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one rule-change event. The key carries the change
// kind and tenant: "rule.updated.<tenantID>" or "rule.deleted.<tenantID>".
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	key := string(msg.Key)
	listKey := strings.Split(key, ".")
	if len(listKey) != 3 || listKey[0] != "rule" {
		log.Error().Msgf("Unknown rule event key: %s", key)
		return
	}

	tenantID, err := strconv.ParseInt(listKey[2], 10, 64)
	if err != nil {
		log.Error().Msgf("Invalid tenant id in rule event key %s: %v", key, err)
		return
	}

	switch listKey[1] {
	case "updated", "deleted":
		if err := c.pricingSvc.InvalidateSnapshot(ctx, tenantID); err != nil {
			log.Error().Msgf("Error invalidating snapshot for tenant %d: %v", tenantID, err)
		}
	default:
		log.Error().Msgf("Unknown rule event type: %s", listKey[1])
	}
}
