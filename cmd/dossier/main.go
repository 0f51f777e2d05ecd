package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bowerhall/dossier/internal/alerts"
	"github.com/bowerhall/dossier/internal/bot"
	"github.com/bowerhall/dossier/internal/cleanup"
	"github.com/bowerhall/dossier/internal/config"
	"github.com/bowerhall/dossier/internal/controller"
	"github.com/bowerhall/dossier/internal/layout"
	"github.com/bowerhall/dossier/internal/ledger"
	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bowerhall/dossier/internal/session"
	"github.com/bowerhall/dossier/internal/storage"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	var store storage.Store
	backend := "local"

	if cfg.Storage.Enabled {
		minioStore, err := storage.NewMinio(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create storage client", "error", err)
		}

		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := minioStore.Init(initCtx); err != nil {
			logger.Fatal("failed to init storage bucket", "error", err)
		}
		cancel()

		store = minioStore
		backend = "minio"
	} else {
		localStore, err := storage.NewLocal(filepath.Join(cfg.DataDir, "artifacts"))
		if err != nil {
			logger.Fatal("failed to create local storage", "error", err)
		}
		store = localStore
	}

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		logger.Fatal("failed to open conversation ledger", "error", err)
	}

	tmpl := layout.DefaultTemplate()
	if cfg.Layout.TemplateFile != "" {
		tmpl, err = layout.Load(cfg.Layout.TemplateFile)
		if err != nil {
			logger.Fatal("failed to load layout template", "error", err)
		}
		logger.Info("layout template loaded", "file", cfg.Layout.TemplateFile)
	}

	sessions := session.NewStore()

	ctrl := controller.New(sessions, store, led, tmpl)
	ctrl.SetBackendInfo(backend, cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var telegramBot bot.Bot
	var enabled []string

	if cfg.Telegram.Enabled {
		b, err := bot.NewTelegram(cfg.Telegram.Token, ctrl)
		if err != nil {
			logger.Fatal("failed to create telegram bot", "error", err)
		}

		ctrl.RegisterTransport(b)
		ctrl.SetOperator("telegram", cfg.Telegram.Operator)
		telegramBot = b
		enabled = append(enabled, "telegram")

		go runBot(ctx, b)
	}

	if cfg.Discord.Enabled {
		b, err := bot.NewDiscord(cfg.Discord.Token, ctrl)
		if err != nil {
			logger.Fatal("failed to create discord bot", "error", err)
		}

		ctrl.RegisterTransport(b)
		ctrl.SetOperator("discord", cfg.Discord.Operator)
		enabled = append(enabled, "discord")

		go runBot(ctx, b)
	}

	// alerts go to the telegram operator, whose user id is also the id of
	// their private chat with the bot
	var alerter *alerts.Alerter
	if telegramBot != nil && cfg.Telegram.Operator != "" {
		operatorChat := cfg.Telegram.Operator
		tb := telegramBot

		alerter = alerts.New(func(message string) {
			if err := tb.Send(operatorChat, message); err != nil {
				logger.Error("alert delivery failed", "error", err)
			}
		}, time.Hour)

		ctrl.SetAlerter(alerter)
		logger.Info("operator alerting enabled", "chat", operatorChat)
	}

	cleaner := cleanup.New(sessions, store, alerter, cfg.Cleanup.TTL)
	if err := cleaner.Start(cfg.Cleanup.Schedule); err != nil {
		logger.Fatal("failed to start cleanup", "error", err)
	}

	logger.Info("dossier started",
		"transports", enabled,
		"storage", backend,
		"data", cfg.DataDir,
		"conversations", led.Len(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cleaner.Stop()
	cancel()
}

func runBot(ctx context.Context, b bot.Bot) {
	if err := b.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("bot stopped", "error", err)
	}
}
