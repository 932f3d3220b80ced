package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"debatefloor/internal/alerts"
	"debatefloor/internal/config"
	"debatefloor/internal/debate"
	"debatefloor/internal/flow"
	"debatefloor/internal/llm"
	"debatefloor/internal/news"
	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/polymarket/gammaapi"
	"debatefloor/internal/refresher"
	"debatefloor/internal/search"
	"debatefloor/internal/server"
	"debatefloor/internal/stats"
	"debatefloor/internal/storage"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting debatefloor service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	log.WithFields(logrus.Fields{
		"environment":      cfg.Environment,
		"server_port":      cfg.ServerPort,
		"refresh_interval": cfg.RefreshInterval.String(),
		"gemini_model":     cfg.GeminiModel,
		"alert_mode":       cfg.AlertMode,
	}).Info("Configuration loaded")

	// Initialize database
	db, err := storage.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	log.Info("Database connected")

	// Run auto-migration
	if err := db.AutoMigrate(); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}

	log.Info("Database migrations complete")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize API clients
	gammaClient := gammaapi.NewClient(cfg, log)
	dataClient := dataapi.NewClient(cfg)
	clobClient := clobapi.NewClient(cfg)
	newsClient := news.NewClient(cfg.NewsAPIKey, log)

	log.Info("API clients initialized")

	// Initialize the deliberation pipeline
	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: float32(cfg.GeminiTemperature),
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Gemini client")
	}

	searcher := search.NewClient(cfg.TavilyAPIKey, log)

	registry, err := debate.DefaultRegistry(gemini, searcher, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to build stage registry")
	}
	executor := debate.NewExecutor(registry, log)

	// Trader flow aggregation over cached wallet stats
	statsProvider := stats.NewProvider(dataClient, cfg.StatsCacheTTL, log)
	aggregator := flow.NewAggregator(statsProvider, log, flow.Options{
		TopN:     cfg.TraderFlowTopN,
		Lookback: cfg.TraderFlowLookback,
		Workers:  cfg.EnrichmentWorkers,
	})

	// Initialize notice sender
	noticeSender := createNoticeSender(cfg, log)

	log.WithField("alert_mode", cfg.AlertMode).Info("Notice sender initialized")

	// Start the background refresher
	ref := refresher.New(cfg, db, gammaClient, dataClient, newsClient, noticeSender, log)
	go ref.Run(ctx)

	// Start the API server
	srv := server.New(cfg, server.Deps{
		Store:    db,
		Gamma:    gammaClient,
		Trades:   dataClient,
		Prices:   clobClient,
		Wallets:  statsProvider,
		NewsFeed: newsClient,
		Traders:  aggregator,
		Debates:  executor,
	}, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.ServerPort).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Graceful shutdown complete")
}

func createNoticeSender(cfg *config.Config, log *logrus.Logger) alerts.Sender {
	// Parse comma-separated alert modes
	modes := strings.Split(cfg.AlertMode, ",")
	for i, mode := range modes {
		modes[i] = strings.TrimSpace(mode)
	}

	var senders []alerts.Sender
	for _, mode := range modes {
		switch mode {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "discord":
			if cfg.DiscordWebURL == "" {
				log.Warn("Discord mode specified but DISCORD_WEBHOOK_URL not set")
				continue
			}
			senders = append(senders, alerts.NewDiscordSender(cfg.DiscordWebURL))
		case "smtp":
			if cfg.SMTPHost == "" {
				log.Warn("SMTP mode specified but SMTP_HOST not set")
				continue
			}
			senders = append(senders, alerts.NewSMTPSender(
				cfg.SMTPHost,
				cfg.SMTPPort,
				cfg.SMTPUser,
				cfg.SMTPPassword,
				cfg.SMTPFrom,
				cfg.SMTPTo,
			))
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	if len(senders) == 0 {
		log.Warn("No valid notice senders configured, using log")
		return alerts.NewLogSender(log)
	}
	if len(senders) == 1 {
		return senders[0]
	}
	return alerts.NewMultiSender(senders...)
}
