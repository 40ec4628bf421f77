package main

import (
	"flag"
	"math/rand/v2"
	"os"

	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/logger"
)

func main() {
	users := flag.Int("users", 40, "number of demo users to create")
	seed := flag.Uint64("seed", 1, "random seed for answers and placement")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("component", "seed")

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	r := rand.New(rand.NewPCG(*seed, *seed))
	if err := db.SeedDemoData(database, r, *users); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed", "users", *users, "code", db.DemoCode)
}
