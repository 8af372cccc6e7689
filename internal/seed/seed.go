// Package seed resolves the airport list the station store starts with.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DanielFallaP/airport-weather/internal/catalog"
	"github.com/DanielFallaP/airport-weather/internal/config"
	"github.com/DanielFallaP/airport-weather/internal/db"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

//go:embed stations.yaml
var defaultStations []byte

type document struct {
	Stations []types.Station `yaml:"stations"`
}

// Default returns the embedded airport list.
func Default() ([]types.Station, error) {
	return parse(defaultStations)
}

// LoadFile reads a YAML document with a top-level stations list.
func LoadFile(path string) ([]types.Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	stations, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return stations, nil
}

// Resolve picks the seed source: the SQLite catalog when configured, then the
// seed file, then the embedded list.
func Resolve(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]types.Station, error) {
	switch {
	case cfg.SeedSQLitePath != "":
		conn, err := db.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := db.Close(conn); closeErr != nil {
				logger.Error("catalog close", "error", closeErr)
			}
		}()
		if err := catalog.Migrate(ctx, conn); err != nil {
			return nil, fmt.Errorf("catalog migrate: %w", err)
		}
		stations, err := catalog.Load(ctx, conn)
		if err != nil {
			return nil, err
		}
		logger.Info("seed loaded", "source", "sqlite", "path", cfg.SeedSQLitePath, "stations", len(stations))
		return stations, nil

	case cfg.SeedFile != "":
		stations, err := LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		logger.Info("seed loaded", "source", "file", "path", cfg.SeedFile, "stations", len(stations))
		return stations, nil

	default:
		stations, err := Default()
		if err != nil {
			return nil, err
		}
		logger.Info("seed loaded", "source", "embedded", "stations", len(stations))
		return stations, nil
	}
}

func parse(data []byte) ([]types.Station, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate(doc.Stations); err != nil {
		return nil, err
	}
	return doc.Stations, nil
}

func validate(stations []types.Station) error {
	seen := make(map[string]bool, len(stations))
	var errs []error
	for i, s := range stations {
		switch {
		case strings.TrimSpace(s.Code) == "":
			errs = append(errs, fmt.Errorf("station %d: empty iata", i))
		case seen[s.Code]:
			errs = append(errs, fmt.Errorf("station %d: duplicate iata %q", i, s.Code))
		case !inRange(s.Latitude, 90) || !inRange(s.Longitude, 180):
			errs = append(errs, fmt.Errorf("station %q: coordinates out of range", s.Code))
		}
		seen[s.Code] = true
	}
	return errors.Join(errs...)
}

// inRange reports whether v is finite and within [-limit, limit].
func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}
