package config

import "time"

type Config struct {
	DataDir    string
	LedgerPath string
	Telegram   TransportConfig
	Discord    TransportConfig
	Storage    StorageConfig
	Layout     LayoutConfig
	Cleanup    CleanupConfig
}

type TransportConfig struct {
	Enabled  bool
	Token    string
	Operator string
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type LayoutConfig struct {
	TemplateFile string
}

type CleanupConfig struct {
	Schedule string
	TTL      time.Duration
}
