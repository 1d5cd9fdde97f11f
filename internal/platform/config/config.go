package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	RedisURL     string
	JWTSecret    string
	KafkaBrokers []string
	AdminWallets []string
	LogFormat    string

	IPFSGatewayURL   string
	IPFSAPIKey       string
	LedgerGatewayURL string
	MetadataCacheTTL time.Duration

	EpochCloseInterval time.Duration
	EpochCloseBatch    int

	EnableEpochCloser bool
	EnableOutboxRelay bool
	AutoMigrate       bool
}

// Load reads the process environment. A .env file in the working directory
// is applied first when present; variables already set win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	brokers := envList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	cacheTTL, err := envDuration("METADATA_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	closeInterval, err := envDuration("EPOCH_CLOSE_INTERVAL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	closeBatch, err := envInt("EPOCH_CLOSE_BATCH", 0)
	if err != nil {
		return Config{}, err
	}
	if closeBatch < 0 {
		return Config{}, errors.New("EPOCH_CLOSE_BATCH must not be negative")
	}

	return Config{
		ServiceName:  envString("SERVICE_NAME", "arcane"),
		HTTPPort:     envString("HTTP_PORT", "8080"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		KafkaBrokers: brokers,
		AdminWallets: envList("ADMIN_WALLETS"),
		LogFormat:    strings.ToLower(envString("LOG_FORMAT", "text")),

		IPFSGatewayURL:   envString("IPFS_GATEWAY_URL", "https://eu.starton-ipfs.com/ipfs"),
		IPFSAPIKey:       os.Getenv("IPFS_API_KEY"),
		LedgerGatewayURL: envString("LEDGER_GATEWAY_URL", "https://mainnet.radixdlt.com"),
		MetadataCacheTTL: cacheTTL,

		EpochCloseInterval: closeInterval,
		EpochCloseBatch:    closeBatch,

		EnableEpochCloser: envBool("ENABLE_EPOCH_CLOSER", true),
		EnableOutboxRelay: envBool("ENABLE_OUTBOX_RELAY", true),
		AutoMigrate:       envBool("AUTO_MIGRATE", true),
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envList(name string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return value, nil
}
