package main

import (
	"context"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/logger"
	"github.com/oggyb/nearmatch/internal/matching"
	"github.com/oggyb/nearmatch/internal/server"
	"github.com/oggyb/nearmatch/internal/service/account"
	"github.com/oggyb/nearmatch/internal/service/chat"
	"github.com/oggyb/nearmatch/internal/service/matchmaker"
	"github.com/oggyb/nearmatch/internal/service/survey"
)

const demoUsers = 40

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)
	if err := appCtx.UseBackends(ctx); err != nil {
		log.Error("failed to init backends", "err", err)
		return
	}

	seed := uint64(time.Now().UnixNano())
	builder := matching.NewPayloadBuilder(rand.New(rand.NewPCG(seed, seed>>1)), appCtx.Now)

	registrars := []server.Registrar{
		matchmaker.NewRegistrar(appCtx, builder),
		survey.NewRegistrar(appCtx),
		account.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		r := rand.New(rand.NewPCG(seed, seed<<1))
		if err := db.SeedDemoData(database, r, demoUsers); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	if err := server.StartGRPCServer(ctx, cfg, log, registrars...); err != nil {
		log.Error("grpc server stopped", "err", err)
		os.Exit(1)
	}
}
