package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func Load() (*Config, error) {
	dataDir := os.Getenv("DOSSIER_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	ledgerPath := os.Getenv("DOSSIER_LEDGER")
	if ledgerPath == "" {
		ledgerPath = filepath.Join(dataDir, "conversations.json")
	}

	telegram := loadTelegramConfig()
	discord := loadDiscordConfig()
	if !telegram.Enabled && !discord.Enabled {
		return nil, fmt.Errorf("no transport configured: set TELEGRAM_TOKEN or DISCORD_TOKEN")
	}

	cleanupConfig, err := loadCleanupConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:    dataDir,
		LedgerPath: ledgerPath,
		Telegram:   telegram,
		Discord:    discord,
		Storage:    loadStorageConfig(),
		Layout:     loadLayoutConfig(),
		Cleanup:    cleanupConfig,
	}, nil
}

func loadTelegramConfig() TransportConfig {
	token := os.Getenv("TELEGRAM_TOKEN")

	return TransportConfig{
		Enabled:  token != "",
		Token:    token,
		Operator: os.Getenv("TELEGRAM_OPERATOR_ID"),
	}
}

func loadDiscordConfig() TransportConfig {
	token := os.Getenv("DISCORD_TOKEN")

	return TransportConfig{
		Enabled:  token != "",
		Token:    token,
		Operator: os.Getenv("DISCORD_OPERATOR_ID"),
	}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "dossier"
	}

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    bucket,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}

func loadLayoutConfig() LayoutConfig {
	return LayoutConfig{
		TemplateFile: os.Getenv("DOSSIER_LAYOUT"),
	}
}

func loadCleanupConfig() (CleanupConfig, error) {
	schedule := os.Getenv("DOSSIER_CLEANUP_SCHEDULE")
	if schedule == "" {
		schedule = "0 * * * *"
	}

	ttl := 48 * time.Hour
	if raw := os.Getenv("DOSSIER_SESSION_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return CleanupConfig{}, fmt.Errorf("invalid DOSSIER_SESSION_TTL: %w", err)
		}
		if parsed <= 0 {
			return CleanupConfig{}, fmt.Errorf("DOSSIER_SESSION_TTL must be positive, got %s", parsed)
		}
		ttl = parsed
	}

	return CleanupConfig{
		Schedule: schedule,
		TTL:      ttl,
	}, nil
}
