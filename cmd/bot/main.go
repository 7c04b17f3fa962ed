package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/config"
	"github.com/hirepro/funnel/internal/infra/database"
	"github.com/hirepro/funnel/internal/infra/mail"
	"github.com/hirepro/funnel/internal/infra/queue"
	"github.com/hirepro/funnel/internal/infra/telegram"
	"github.com/hirepro/funnel/internal/usecase"
)

func main() {
	godotenv.Load()

	var cfg config.BotConfig
	kong.Parse(&cfg, kong.Name("funnel-bot"), kong.Description("Verification and handoff bot."))

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rabbitMQ.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Telegram")
	}

	leadRepo := database.NewLeadRepository(db)
	execRepo := database.NewExecutiveRepository(db)
	assignRepo := database.NewAssignmentRepository(db)

	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	verifyContact := usecase.NewVerifyContactUseCase(leadRepo, assignRepo, producer)
	roster := usecase.NewRosterUseCase(execRepo, assignRepo)

	var alerts queue.AlertSender
	if cfg.MailHost != "" && cfg.AlertEmail != "" {
		alerts = mail.NewEmailSender(
			cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword,
			cfg.MailFrom, cfg.AlertEmail,
		)
	}

	// Verification and broadcast counters live in this process; expose them.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	poster := telegram.NewGroupPoster(api, cfg.GroupID)
	worker := queue.NewWorker(rabbitMQ.Ch, poster, alerts)
	go func() {
		if err := worker.Start(ctx, queue.QueueName); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("group post worker stopped")
		}
	}()

	bot := telegram.NewBot(api, verifyContact, roster, cfg.GroupID, cfg.OwnerID)
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}
