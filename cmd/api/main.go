package main

import (
	"context"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/config"
	"github.com/hirepro/funnel/internal/infra/database"
	"github.com/hirepro/funnel/internal/infra/http/handlers"
	"github.com/hirepro/funnel/internal/infra/http/middleware"
	"github.com/hirepro/funnel/internal/usecase"
)

func main() {
	godotenv.Load()

	var cfg config.APIConfig
	kong.Parse(&cfg, kong.Name("funnel-api"), kong.Description("Lead intake API."))

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

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	leadRepo := database.NewLeadRepository(db)
	captureLead := usecase.NewCaptureLeadUseCase(leadRepo)

	leadHandler := handlers.NewLeadHandler(captureLead)
	lookupHandler := handlers.NewLookupHandler(leadRepo, cfg.AdminKey)
	healthHandler := handlers.NewHealthHandler(db, nil)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/api/lead", leadHandler.Handle)
	r.Get("/api/lead/lookup", lookupHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	log.Info().Str("addr", cfg.Addr).Msg("intake API listening")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
