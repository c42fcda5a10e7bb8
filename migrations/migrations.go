package migrations

import (
	"database/sql"
	"time"
)

// AutoMigratePriceRules creates the price_rules table on every shard if it
// does not exist. The admin console owns the writes; this service only
// needs the table present for its read queries.
func AutoMigratePriceRules(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS price_rules (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			rule_type VARCHAR(20) NOT NULL,
			adjustment_type VARCHAR(20) NOT NULL,
			adjustment_value DOUBLE NOT NULL,
			product_scope VARCHAR(20) NOT NULL,
			product_target_id BIGINT NULL,
			zone_scope VARCHAR(20) NOT NULL,
			zone_id BIGINT NULL,
			active_days VARCHAR(20) NULL,
			active_start_time VARCHAR(5) NULL,
			active_end_time VARCHAR(5) NULL,
			valid_from BIGINT NULL,
			valid_until BIGINT NULL,
			is_stackable BOOLEAN NOT NULL DEFAULT FALSE,
			is_exclusive BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			receipt_name VARCHAR(255) NOT NULL DEFAULT '',
			INDEX idx_tenant_active (tenant_id, is_active)
		);
	`
	for _, db := range dbs {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
		}
	}
	return nil
}
