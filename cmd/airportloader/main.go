package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DanielFallaP/airport-weather/internal/catalog"
	"github.com/DanielFallaP/airport-weather/internal/config"
	"github.com/DanielFallaP/airport-weather/internal/db"
	"github.com/DanielFallaP/airport-weather/internal/loader"
	"github.com/DanielFallaP/airport-weather/internal/logging"
)

const appName = "airportloader"

var version = "dev"

func main() {
	baseURL := flag.String("base-url", "http://localhost:9090", "collector base URL")
	catalogPath := flag.String("catalog", "", "write into this SQLite catalog instead of posting to the collector")
	rps := flag.Float64("rps", 50, "maximum airports per second (0 = unlimited)")
	burst := flag.Int("burst", 10, "rate limiter burst")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] airports.dat\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		fmt.Fprintf(os.Stderr, "%s is not a valid input\n", path)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, path, *baseURL, *catalogPath, *rps, *burst); err != nil {
		slog.Error("load failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, path, baseURL, catalogPath string, rps float64, burst int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stations, skipped, parseErr := loader.Parse(f)
	if parseErr != nil {
		logger.Warn("some records could not be parsed", "error", parseErr)
	}
	if len(stations) == 0 {
		return errors.New("no airports found in input")
	}

	var sink loader.Sink
	if catalogPath != "" {
		cfg.SeedSQLitePath = catalogPath
		conn, err := db.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close(conn) }()
		if err := catalog.Migrate(ctx, conn); err != nil {
			return err
		}
		sink = loader.NewCatalogSink(conn)
	} else {
		sink = loader.NewHTTPSink(baseURL, nil)
	}

	summary, err := loader.New(sink, rps, burst, logger).Load(ctx, stations)
	logger.Info("airports loaded",
		"created", summary.Created,
		"skipped", summary.Skipped+skipped,
		"failed", summary.Failed,
	)
	return err
}
