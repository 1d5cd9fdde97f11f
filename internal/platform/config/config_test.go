package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, name := range []string{
		"SERVICE_NAME", "HTTP_PORT", "KAFKA_BROKERS", "METADATA_CACHE_TTL",
		"EPOCH_CLOSE_INTERVAL", "EPOCH_CLOSE_BATCH", "ENABLE_EPOCH_CLOSER",
		"ENABLE_OUTBOX_RELAY", "AUTO_MIGRATE", "LOG_FORMAT", "IPFS_GATEWAY_URL",
		"LEDGER_GATEWAY_URL", "REDIS_URL", "ADMIN_WALLETS",
	} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServiceName != "arcane" || cfg.HTTPPort != "8080" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.MetadataCacheTTL != 10*time.Minute || cfg.EpochCloseInterval != 30*time.Second || cfg.EpochCloseBatch != 0 {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if !cfg.EnableEpochCloser || !cfg.EnableOutboxRelay || !cfg.AutoMigrate {
		t.Fatalf("expected feature flags on by default: %+v", cfg)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("expected cache disabled by default, got %q", cfg.RedisURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVICE_NAME", "arcane-test")
	t.Setenv("KAFKA_BROKERS", " a:9092 , ,b:9092")
	t.Setenv("METADATA_CACHE_TTL", "1m")
	t.Setenv("EPOCH_CLOSE_INTERVAL", "5s")
	t.Setenv("EPOCH_CLOSE_BATCH", "25")
	t.Setenv("ENABLE_EPOCH_CLOSER", "off")
	t.Setenv("AUTO_MIGRATE", "no")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("ADMIN_WALLETS", "account_a, account_b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServiceName != "arcane-test" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if len(cfg.AdminWallets) != 2 || cfg.AdminWallets[0] != "account_a" {
		t.Fatalf("unexpected admin wallets: %v", cfg.AdminWallets)
	}
	if cfg.MetadataCacheTTL != time.Minute || cfg.EpochCloseInterval != 5*time.Second || cfg.EpochCloseBatch != 25 {
		t.Fatalf("unexpected timing overrides: %+v", cfg)
	}
	if cfg.EnableEpochCloser || cfg.AutoMigrate || !cfg.EnableOutboxRelay {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "METADATA_CACHE_TTL", value: "soon"},
		{name: "zero interval", key: "EPOCH_CLOSE_INTERVAL", value: "0s"},
		{name: "bad batch", key: "EPOCH_CLOSE_BATCH", value: "many"},
		{name: "negative batch", key: "EPOCH_CLOSE_BATCH", value: "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", tc.key, tc.value)
			}
		})
	}
}
