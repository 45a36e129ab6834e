package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"prometrix/internal/adapters/gsc"
	server "prometrix/internal/adapters/http_server"
	"prometrix/internal/adapters/observability"
	"prometrix/internal/adapters/openai"
	redisad "prometrix/internal/adapters/redis"
	"prometrix/internal/app"
	"prometrix/internal/domain"
	"prometrix/internal/shared"
	"prometrix/internal/storage/sqlite"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("sqlite open failed")
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	log.Info().Str("path", cfg.SQLitePath).Msg("database ready")

	// deps
	repo := sqlite.New(db)
	if cfg.AppEnv == "dev" {
		if err := sqlite.SeedDemo(ctx, repo); err != nil {
			log.Warn().Err(err).Msg("demo seed failed")
		}
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var writer domain.EmailWriter
	var suggester domain.ContentSuggester
	if cfg.OpenAIKey != "" {
		ai, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, 2)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
		}
		writer, suggester = ai, ai
	}

	oauth := gsc.NewOAuth(cfg.GSCClientID, cfg.GSCClientSecret, cfg.GSCRedirectURI, repo)
	var console domain.SearchConsoleClient
	if oauth.Configured() {
		c, err := gsc.New(cfg.GSCBase, oauth.Bearer("default"), 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Search Console client")
		}
		console = c
	}

	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	imp := app.NewImportService(repo, cache)
	gap := app.NewGapService(repo, suggester)
	out := app.NewOutreachService(repo, writer)
	search := app.NewSearchService(console, repo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:      q,
		Imp:    imp,
		Gap:    gap,
		Out:    out,
		Search: search,
		OAuth:  oauth,
		Ping:   db.PingContext,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
