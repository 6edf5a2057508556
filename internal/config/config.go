package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	GRPCPort    string
	Environment string

	// Database
	DBDriver          string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	// Redis
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	InventoryCacheTTL time.Duration
	IdempotencyTTL    time.Duration

	AuditLogDefaultLimit int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	driver := getEnv("DB_DRIVER", "mysql")

	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBDriver:          driver,
		DBDSN:             getEnv("DB_DSN", defaultDSN(driver)),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBAutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", driver != "mysql"),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		InventoryCacheTTL: getEnvAsDuration("INVENTORY_CACHE_TTL", time.Minute),
		IdempotencyTTL:    getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		AuditLogDefaultLimit: getEnvAsInt("AUDIT_LOG_DEFAULT_LIMIT", 100),
	}
}

func defaultDSN(driver string) string {
	if driver == "mysql" {
		return "root:root@tcp(localhost:3306)/orderfulfillment"
	}
	return "order_fulfillment.db"
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
