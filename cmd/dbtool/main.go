package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"route-optimizer/internal/adapters/repositories"
	"route-optimizer/internal/config"
	"route-optimizer/internal/logger"
	"route-optimizer/internal/platform/db"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Postgres URL" required:"true"`
	SeedPath    string `long:"seed"         env:"SEED_PATH"    description:"Stops JSON file"  default:"data/seeds/stops.json"`
	SchemaOnly  bool   `long:"schema-only"                     description:"Create tables without seeding"`
}

func main() {
	config.LoadEnv()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	conn, err := db.Open(context.Background(), opts.DatabaseURL, db.DefaultPool)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	defer conn.Close()

	if err := initAndSeed(context.Background(), conn, opts); err != nil {
		conn.Close()
		log.Fatal().Err(err).Msg("Database setup failed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, opts Options) error {
	log.Info().Msg("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("Schema ready.")

	if opts.SchemaOnly {
		return nil
	}

	log.Info().Str("path", opts.SeedPath).Msg("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, opts.SeedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("Seeding complete.")

	return nil
}
