package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"pricing-rule-service/internal/api"
	"pricing-rule-service/internal/config"
	"pricing-rule-service/internal/consumer"
	"pricing-rule-service/internal/repository"
	"pricing-rule-service/internal/rulefile"
	"pricing-rule-service/internal/service"
	"pricing-rule-service/internal/sharding"
	"pricing-rule-service/migrations"
)

func connectDBEnv(host, port, user, pass, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, dbname)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, dbname, host, port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", dbname, host, port, err)
}

func newRuleSource() (service.RuleSource, error) {
	// Offline terminals and local dev run from a YAML fixture instead of
	// the sharded databases.
	if path := os.Getenv("RULES_FILE"); path != "" {
		log.Printf("Serving rule snapshots from file %s", path)
		return rulefile.NewFileRuleSource(path), nil
	}

	db1, err := connectDBEnv(os.Getenv("DB1_HOST"), os.Getenv("DB1_PORT"), os.Getenv("DB1_USER"), os.Getenv("DB1_PASS"), os.Getenv("DB1_NAME"))
	if err != nil {
		return nil, err
	}
	db2, err := connectDBEnv(os.Getenv("DB2_HOST"), os.Getenv("DB2_PORT"), os.Getenv("DB2_USER"), os.Getenv("DB2_PASS"), os.Getenv("DB2_NAME"))
	if err != nil {
		return nil, err
	}
	db3, err := connectDBEnv(os.Getenv("DB3_HOST"), os.Getenv("DB3_PORT"), os.Getenv("DB3_USER"), os.Getenv("DB3_PASS"), os.Getenv("DB3_NAME"))
	if err != nil {
		return nil, err
	}

	if err := migrations.AutoMigratePriceRules(3, db1, db2, db3); err != nil {
		return nil, fmt.Errorf("failed to migrate price_rules table: %v", err)
	}

	router := sharding.NewShardRouter(3)
	return repository.NewRuleRepository([]*sql.DB{db1, db2, db3}, router), nil
}

func main() {
	ruleSource, err := newRuleSource()
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
	})

	kafkaWriter := config.NewKafkaWriter("pricing-topic")

	pricingService := service.NewPricingService(ruleSource, rdb, kafkaWriter)
	pricingHandler := api.NewPricingHandler(pricingService)

	// Listen for rule changes from the admin console.
	go consumer.NewConsumer(pricingService).StartKafkaConsumer()

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     40,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "secret"
	}

	pricing := e.Group("/pricing", echojwt.JWT([]byte(jwtSecret)))
	pricing.POST("/evaluate", pricingHandler.EvaluatePrice)
	pricing.POST("/preview", pricingHandler.PreviewPrice)
	pricing.GET("/rules/:id", pricingHandler.GetRule)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "pricing-rule-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
