package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/digkill/PhotoStudio/internal/auth"
	"github.com/digkill/PhotoStudio/internal/cache"
	"github.com/digkill/PhotoStudio/internal/config"
	"github.com/digkill/PhotoStudio/internal/database"
	"github.com/digkill/PhotoStudio/internal/gemini"
	"github.com/digkill/PhotoStudio/internal/httpapi"
	"github.com/digkill/PhotoStudio/internal/kie"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/repository"
	"github.com/digkill/PhotoStudio/internal/service"
	"github.com/digkill/PhotoStudio/internal/storage"
	"github.com/digkill/PhotoStudio/internal/telegram"
	"github.com/digkill/PhotoStudio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	rechargeRepo := repository.NewRechargeRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	var settingsCache service.SettingsCache
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logr.Warn("redis unavailable, settings cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			settingsCache = cache.NewViewCache[models.SystemSettings](rdb, cfg.SettingsCacheTTL, logr)
		}
		cancel()
	}

	var uploader *storage.Uploader
	var fileUploader service.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewUploader(storage.ConfigFrom(cfg))
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		fileUploader = uploader
	} else {
		logr.Info("object storage not configured, logo uploads disabled")
	}

	var transformer service.Transformer
	switch cfg.TransformerProvider {
	case config.ProviderKIE:
		if uploader == nil {
			log.Fatalf("kie provider requires object storage")
		}
		transformer = kie.NewClient(cfg, uploader, logr)
	default:
		geminiClient, err := gemini.NewClient(ctx, cfg, logr)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
		transformer = geminiClient
	}

	var bot *telegram.Bot
	var notifier service.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		bot, err = telegram.New(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logr)
		if err != nil {
			log.Fatalf("telegram bot: %v", err)
		}
		notifier = bot
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	defaults := service.DefaultSettings(cfg.DefaultCost, cfg.DefaultWelcomeBonus, cfg.AdminPIN)
	settingsService := service.NewSettingsService(logr, settingsRepo, settingsCache, fileUploader, defaults)
	accountService := service.NewAccountService(logr, accountRepo, photoRepo, rechargeRepo, tokens)
	generationService := service.NewGenerationService(logr, ledgerRepo, photoRepo, transformer)
	ledgerService := service.NewLedgerService(logr, ledgerRepo)
	rechargeService := service.NewRechargeService(logr, rechargeRepo, notifier)

	if err := settingsService.EnsureDefaults(ctx); err != nil {
		log.Fatalf("ensure default settings: %v", err)
	}
	if cfg.AdminEmail != "" {
		if err := accountService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("ensure admin: %v", err)
		}
	}

	if bot != nil {
		go func() {
			if err := bot.Run(ctx, rechargeService); err != nil && !errors.Is(err, context.Canceled) {
				logr.Error("telegram bot stopped", "err", err)
			}
		}()
	}

	server := httpapi.NewServer(httpapi.Options{
		Addr:               cfg.ListenAddr,
		RequestTimeout:     cfg.RequestTimeout,
		GenerateRatePerMin: cfg.GenerateRatePerMin,
	}, logr, httpapi.Deps{
		Accounts:  accountService,
		Studio:    generationService,
		Recharges: rechargeService,
		Ledger:    ledgerService,
		Settings:  settingsService,
		Tokens:    tokens,
		DB:        db,
	})
	if err := server.Run(ctx); err != nil {
		logr.Error("http api stopped", "err", err)
	}
}
