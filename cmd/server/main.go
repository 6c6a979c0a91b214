package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"route-optimizer/internal/adapters/cache"
	"route-optimizer/internal/adapters/distance"
	"route-optimizer/internal/adapters/events"
	"route-optimizer/internal/adapters/location"
	"route-optimizer/internal/adapters/ors"
	"route-optimizer/internal/adapters/progress"
	"route-optimizer/internal/adapters/repositories"
	"route-optimizer/internal/adapters/storage"
	"route-optimizer/internal/api"
	"route-optimizer/internal/api/handlers"
	"route-optimizer/internal/config"
	"route-optimizer/internal/logger"
	"route-optimizer/internal/platform/db"
	"route-optimizer/internal/platform/metrics"
	"route-optimizer/internal/ports"
	"route-optimizer/internal/services"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to locations/engine settings" default:"configs/locations.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"             default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"PORT"           description:"Port to listen on"                default:"8080"`

	DatabaseURL string        `long:"database-url" env:"DATABASE_URL" description:"Postgres URL for stops, caches and run history"`
	DBMaxConns  int           `long:"db-max-conns" env:"DB_MAX_CONNS" description:"Maximum open Postgres connections" default:"10"`
	SeedPath    string        `long:"seed"         env:"SEED_PATH"    description:"Stops JSON seeded on startup when a database is configured"`
	RedisURL    string        `long:"redis-url"    env:"REDIS_URL"    description:"Redis URL for the recent run cache"`
	RunTTL      time.Duration `long:"run-ttl"      env:"RUN_TTL"      description:"Lifetime of cached runs" default:"24h"`

	ORS   ORSOptions   `group:"OpenRouteService options"`
	S3    S3Options    `group:"Run archive options"`
	Kafka KafkaOptions `group:"Event options"`
}

type ORSOptions struct {
	APIKey      string        `long:"ors-api-key"     env:"ORS_API_KEY"     description:"Enables road distances and geocoding"`
	Country     string        `long:"ors-country"     env:"ORS_COUNTRY"     description:"ISO country code restricting geocoding"`
	CacheMaxAge time.Duration `long:"cache-max-age"   env:"CACHE_MAX_AGE"   description:"Age after which cached road distances are refetched (0 keeps them)" default:"720h"`
}

type S3Options struct {
	Endpoint  string `long:"s3-endpoint"   env:"MINIO_ENDPOINT"   description:"S3-compatible endpoint (host:port)"`
	AccessKey string `long:"s3-access-key" env:"MINIO_ACCESS_KEY" description:"Access key"`
	SecretKey string `long:"s3-secret-key" env:"MINIO_SECRET_KEY" description:"Secret key"`
	Bucket    string `long:"s3-bucket"     env:"MINIO_BUCKET"     description:"Bucket for archived runs" default:"route-runs"`
	UseSSL    bool   `long:"s3-ssl"        env:"MINIO_USE_SSL"    description:"Use TLS"`
}

type KafkaOptions struct {
	Brokers string `long:"kafka-brokers" env:"KAFKA_BROKERS" description:"Comma-separated broker list"`
	Topic   string `long:"kafka-topic"   env:"KAFKA_TOPIC"   description:"Topic for finished runs" default:"route.optimized"`
}

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS, S3, Kafka) behind ports and starts the HTTP server.
// Every external system is optional; without them the service runs on great-circle distances.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	m := metrics.New()
	engine := services.NewEngine(append(
		cfg.Engine.EngineOptions(),
		services.WithObserver(services.MultiObserver{
			progress.LogObserver{Logger: log.Logger},
			progress.MetricsObserver{Metrics: m},
		}),
	)...)

	var conn *sql.DB
	if opts.DatabaseURL != "" {
		conn, err = db.Open(ctx, opts.DatabaseURL, db.Pool{MaxOpen: opts.DBMaxConns})
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := repositories.InitSchema(ctx, conn); err != nil {
			return err
		}
		if opts.SeedPath != "" {
			if err := repositories.SeedFromJSON(ctx, conn, opts.SeedPath); err != nil {
				return err
			}
		}
	}

	resolver, oracles, err := wireLocations(cfg, opts.ORS, conn)
	if err != nil {
		return err
	}

	planner := services.NewRoutePlanner(resolver, oracles, engine, cfg.End)
	planner.Attempts = cfg.Engine.Attempts
	deps := api.Deps{Planner: planner, Metrics: m, Checks: map[string]handlers.HealthCheck{}}

	var history services.RunHistory
	if conn != nil {
		stops := repositories.NewPostgresStopRepository(conn)
		runs := repositories.NewPostgresRunRepository(conn)
		planner.Stops = stops
		planner.Sinks = append(planner.Sinks, runs)
		deps.Stops = stops
		deps.History = runs
		deps.Checks["postgres"] = conn.PingContext
		history = append(history, runs)
	}

	if opts.RedisURL != "" {
		rc, err := cache.NewRedisRunCacheFromURL(opts.RedisURL, opts.RunTTL)
		if err != nil {
			return err
		}
		defer rc.Close()

		planner.Sinks = append(planner.Sinks, rc)
		deps.Checks["redis"] = rc.Ping
		history = append(services.RunHistory{rc}, history...)
		if deps.History == nil {
			deps.History = rc
		}
	}
	if len(history) > 0 {
		deps.Runs = history
	}

	if opts.S3.Endpoint != "" {
		archive, err := storage.Connect(ctx, storage.S3Options{
			Endpoint:  opts.S3.Endpoint,
			AccessKey: opts.S3.AccessKey,
			SecretKey: opts.S3.SecretKey,
			Bucket:    opts.S3.Bucket,
			UseSSL:    opts.S3.UseSSL,
		})
		if err != nil {
			return err
		}
		planner.Sinks = append(planner.Sinks, archive)
	}

	if opts.Kafka.Brokers != "" {
		w, err := events.NewKafkaWriter(opts.Kafka.Brokers, opts.Kafka.Topic)
		if err != nil {
			return err
		}
		publisher := events.NewKafkaRunPublisher(w)
		defer publisher.Close()

		planner.Sinks = append(planner.Sinks, publisher)
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)

	// Timeouts are tuned for cold-cache matrix requests (external API latency).
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log.Info().
		Str("addr", listenAddr).
		Str("end", cfg.End).
		Int("locations", len(cfg.Locations)).
		Bool("road_distances", opts.ORS.APIKey != "").
		Int("sinks", len(planner.Sinks)).
		Msg("Server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// wireLocations picks great-circle distances and the static registry, or
// ORS road distances and geocoding when an API key is configured.
func wireLocations(
	cfg *config.File,
	opts ORSOptions,
	conn *sql.DB,
) (ports.LocationResolver, ports.DistanceOracleFactory, error) {
	static := location.NewStaticResolver(cfg.Locations)

	if opts.APIKey == "" {
		return static, distance.StaticFactory{Oracle: distance.Haversine{}}, nil
	}

	client, err := ors.NewClient(opts.APIKey, ors.WithCountry(opts.Country))
	if err != nil {
		return nil, nil, err
	}

	// ORS adapters use persistent Postgres caches to avoid repeated geocode/matrix calls.
	var (
		distanceCache ports.DistanceCache
		geocodeCache  ports.GeocodeCache
	)
	if conn != nil {
		distanceCache = cache.NewSQLDistanceCache(conn, opts.CacheMaxAge)
		geocodeCache = cache.NewSQLGeocodeCache(conn)
	}

	resolver := location.ChainResolver{static, location.NewGeocodingResolver(client, geocodeCache)}
	oracles := distance.NewORSMatrixOracleFactory(client, distanceCache)

	return resolver, oracles, nil
}
