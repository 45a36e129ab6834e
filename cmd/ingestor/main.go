package main

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"prometrix/internal/adapters/observability"
	redisad "prometrix/internal/adapters/redis"
	"prometrix/internal/app"
	"prometrix/internal/shared"
	"prometrix/internal/storage/sqlite"
)

// Bulk-loads backlink CSV exports (Ahrefs, SEMrush, Moz) into the store.
// Usage: ingestor file1.csv [file2.csv ...]
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	files := os.Args[1:]
	if len(files) == 0 {
		log.Fatal().Msg("usage: ingestor <file.csv> [more.csv ...]")
	}

	log.Info().
		Int("files", len(files)).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("sqlite open failed")
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	log.Info().Str("path", cfg.SQLitePath).Msg("database ready")

	repo := sqlite.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	imp := app.NewImportService(repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, path := range files {
		path := path

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			f, err := os.Open(path)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("open failed")
				return
			}
			defer f.Close()

			res, err := imp.ImportCSV(ctx, f)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("import failed")
				return
			}
			log.Info().
				Str("file", path).
				Int64("inserted", res.Inserted).
				Int("errors", res.Errors).
				Int("rows", res.TotalRows).
				Msg("import ok")
		}(path)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
