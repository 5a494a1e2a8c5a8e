package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"spotpilot/api"
	"spotpilot/auth"
	"spotpilot/config"
	"spotpilot/exchange"
	"spotpilot/logger"
	"spotpilot/manager"
	"spotpilot/notifier"
	"spotpilot/store"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Init(nil); err != nil {
		panic(err)
	}
	logger.Info("spotpilot starting up")

	cfg := config.Load()

	riskDefaults, err := config.LoadRiskDefaults(os.Getenv("RISK_DEFAULTS_PATH"))
	if err != nil {
		logger.Fatalf("load risk defaults: %v", err)
	}

	dbType := store.DBTypeSQLite
	if cfg.DBType == "postgres" {
		dbType = store.DBTypePostgres
	}
	if dbType == store.DBTypeSQLite {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				logger.Errorf("create data directory: %v", err)
			}
		}
	}

	st, err := store.New(store.DBConfig{
		Type: dbType, Path: cfg.DBPath,
		Host: cfg.DBHost, Port: cfg.DBPort,
		User: cfg.DBUser, Password: cfg.DBPassword,
		DBName: cfg.DBName, SSLMode: cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}

	if cfg.ExchangeAPIKey == "" || cfg.ExchangeAPISecret == "" {
		logger.Fatalf("EXCHANGE_API_KEY/EXCHANGE_API_SECRET are required")
	}
	adapter := exchange.NewBinanceAdapter(cfg.ExchangeAPIKey, cfg.ExchangeAPISecret, cfg.UseTestnet)

	// A failed credentials check at startup is the one case §6 calls out a
	// distinct exit code for: 2, not the generic config-error 1.
	if _, _, err := adapter.GetBalance(context.Background(), "USDT"); err != nil {
		if classified := exchange.Classify("startup_balance_check", err); classified != nil && classified.Kind == exchange.KindAuth {
			logger.Errorf("exchange credentials rejected: %v", err)
			os.Exit(2)
		}
		logger.Warnf("startup balance check failed (continuing, bots will surface errors per-cycle): %v", err)
	}

	auth.SetJWTSecret(cfg.JWTSecret)

	var notify interface{ Notify(string) } = notifier.Noop{}
	if cfg.NotifierTelegramToken != "" {
		tg, err := notifier.NewTelegram(cfg.NotifierTelegramToken, cfg.NotifierChatID)
		if err != nil {
			logger.Warnf("notifier: telegram disabled: %v", err)
		} else if tg != nil {
			notify = tg
		}
	}

	// NewsProvider and LLMClient are external collaborators defined only
	// by interface. Without concrete implementations wired in, the
	// supervisor runs with Analyser=nil and LLM=nil: technical bots work,
	// ticker_news bots run on their technical signal alone (no news
	// overlay), and autonomous bots fail to start for lack of an LLM client.
	accountant := &manager.Accountant{Store: st, Exchange: adapter}

	sup := &manager.Supervisor{
		Store: st, Exchange: adapter, Accountant: accountant,
		Defaults: riskDefaults, Notifier: notify,
		CheckIntervalSeconds: cfg.CheckIntervalSeconds,
		MinNewsConfidence:    cfg.MinConfidence,
	}

	if err := sup.DetectOrphans(context.Background()); err != nil {
		logger.Warnf("orphan detection: %v", err)
	}
	if err := sup.StartAll(); err != nil {
		logger.Errorf("resume bots: %v", err)
	}

	operatorHash := os.Getenv("OPERATOR_PASSWORD_HASH")
	operatorOTP := os.Getenv("OPERATOR_OTP_SECRET")
	server := api.NewServer(sup, accountant, st, cfg.APIServerPort, operatorHash, operatorOTP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Errorf("http server: %v", err)
		}
	}

	sup.StopAll()
	logger.Info("spotpilot shut down cleanly")
}
