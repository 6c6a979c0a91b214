package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"route-optimizer/internal/adapters/distance"
	"route-optimizer/internal/adapters/location"
	"route-optimizer/internal/adapters/ors"
	"route-optimizer/internal/adapters/progress"
	"route-optimizer/internal/adapters/repositories"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/config"
	"route-optimizer/internal/logger"
	"route-optimizer/internal/ports"
	"route-optimizer/internal/services"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to locations/engine settings" default:"configs/locations.yaml"`
	Stops       string `short:"s" long:"stops"                         description:"Stops JSON file"                   required:"true"`
	Start       string `short:"S" long:"start"                         description:"Named start location"              required:"true"`
	Attempts    int    `short:"n" long:"attempts"                      description:"Pipelines to run, min 4 (0 keeps the config value)"`
	Seed        int64  `long:"seed"                                    description:"Random seed (0 keeps the config seed)"`
	Parallelism int    `short:"j" long:"parallel"                      description:"Pipelines run concurrently (0 keeps the config value)"`
	ORSKey      string `long:"ors-api-key"           env:"ORS_API_KEY" description:"Use road distances and geocoding"`
	Output      string `short:"o" long:"out"                           description:"Output file path. Writes to stdout if empty"`
	Format      string `short:"f" long:"format"                        description:"Output format" choice:"json" choice:"yaml" default:"json"`
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

	if err := run(context.Background(), opts); err != nil {
		log.Fatal().Err(err).Msg("Optimization failed")
	}
}

func run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	stops, err := repositories.ReadStopsJSON(opts.Stops)
	if err != nil {
		return err
	}

	engineOpts := append(cfg.Engine.EngineOptions(),
		services.WithSeed(opts.Seed),
		services.WithParallelism(opts.Parallelism),
		services.WithObserver(progress.LogObserver{Logger: log.Logger}),
	)
	engine := services.NewEngine(engineOpts...)

	var (
		resolver ports.LocationResolver      = location.NewStaticResolver(cfg.Locations)
		oracles  ports.DistanceOracleFactory = distance.StaticFactory{Oracle: distance.Haversine{}}
	)
	if opts.ORSKey != "" {
		client, err := ors.NewClient(opts.ORSKey)
		if err != nil {
			return err
		}
		resolver = location.ChainResolver{resolver, location.NewGeocodingResolver(client, nil)}
		oracles = distance.NewORSMatrixOracleFactory(client, nil)
	}

	planner := services.NewRoutePlanner(resolver, oracles, engine, cfg.End)
	planner.Attempts = cfg.Engine.Attempts
	result, err := planner.Plan(ctx, services.PlanRequest{
		Stops:     stops,
		StartName: opts.Start,
		Attempts:  opts.Attempts,
	})
	if err != nil {
		return err
	}

	res := dto.RunToResponse(result)

	var out []byte
	if opts.Format == "yaml" {
		out, err = yaml.Marshal(res)
	} else {
		out, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.Output, err)
		}
		log.Info().Str("path", opts.Output).Str("algorithm", res.Algorithm).Float64("distance_km", res.DistanceKm).Msg("Result written")
		return nil
	}

	fmt.Println(string(out))
	return nil
}
