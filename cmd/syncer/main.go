package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/hostaway"
	"flex_reviews/internal/adapters/observability"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/shared"
	mysqlrepo "flex_reviews/internal/storage/mysql"
)

func main() {
	wipe := flag.Bool("wipe", false, "delete all reviews and reload from the fallback dataset (destructive)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.HostawayBase).
		Bool("wipe", *wipe).
		Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client, err := hostaway.New(cfg.HostawayBase, cfg.HostawayAuth, cfg.HostawayAccountID, cfg.ProviderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Hostaway client")
	}
	source := app.NewSourceResolver(client, hostaway.NewDataset(cfg.FallbackDataset))
	syncer := app.NewSyncService(source, repo, cache)

	var res app.SyncResult
	if *wipe {
		res, err = syncer.Reload(ctx)
	} else {
		res, err = syncer.Sync(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}

	log.Info().
		Int("count", res.Count).
		Str("provenance", string(res.Provenance)).
		Msg("sync completed")
}
