package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds admin token signing settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker settings for engine events.
type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// AdminConfig holds the bootstrap admin credentials. Password is a bcrypt hash.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// VoucherConfig holds engine tunables.
type VoucherConfig struct {
	// MaxBatchSize bounds a single generation request.
	MaxBatchSize int
	// CodeLength is the length of generated voucher codes.
	CodeLength int
}

// ServiceConfig holds all configuration for the voucher service.
type ServiceConfig struct {
	Port     string
	AppEnv   string
	DB       DatabaseConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Admin    AdminConfig
	Vouchers VoucherConfig
}

// Load reads configuration from environment variables (optionally a local
// .env file) and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // .env is optional

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vouchers")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("VOUCHER_MAX_BATCH", 10000)
	v.SetDefault("VOUCHER_CODE_LENGTH", 7)

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	brokers := splitBrokers(v.GetString("KAFKA_BROKERS"))

	return &ServiceConfig{
		Port:   ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv: v.GetString("APP_ENV"),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{Secret: jwtSecret},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Enabled: len(brokers) > 0,
		},
		Admin: AdminConfig{
			Username:     v.GetString("ADMIN_USERNAME"),
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		Vouchers: VoucherConfig{
			MaxBatchSize: v.GetInt("VOUCHER_MAX_BATCH"),
			CodeLength:   v.GetInt("VOUCHER_CODE_LENGTH"),
		},
	}, nil
}

func splitBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
