package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielFallaP/airport-weather/internal/catalog"
	"github.com/DanielFallaP/airport-weather/internal/config"
	"github.com/DanielFallaP/airport-weather/internal/db"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	stations, err := Default()
	require.NoError(t, err)

	codes := make([]string, 0, len(stations))
	for _, s := range stations {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"BOS", "EWR", "JFK", "LGA", "MMU"}, codes)
	assert.Equal(t, types.Station{Code: "JFK", Latitude: 40.639751, Longitude: -73.778925}, stations[2])
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
stations:
  - iata: MDE
    latitude: 6.16454
    longitude: -75.4231
`)
	stations, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Station{{Code: "MDE", Latitude: 6.16454, Longitude: -75.4231}}, stations)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not yaml", "stations: [oops"},
		{"unknown field", "stations:\n  - iata: BOS\n    elevation: 20\n"},
		{"empty code", "stations:\n  - iata: ''\n    latitude: 1\n    longitude: 1\n"},
		{"duplicate", "stations:\n  - iata: BOS\n  - iata: BOS\n"},
		{"latitude out of range", "stations:\n  - iata: BOS\n    latitude: 95\n"},
		{"nan coordinates", "stations:\n  - iata: NAN\n    latitude: .nan\n    longitude: .nan\n"},
		{"nan longitude", "stations:\n  - iata: BOS\n    latitude: 42.36\n    longitude: .nan\n"},
		{"infinite longitude", "stations:\n  - iata: BOS\n    latitude: 42.36\n    longitude: .inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_Embedded(t *testing.T) {
	stations, err := Resolve(context.Background(), config.Config{}, discard)
	require.NoError(t, err)
	assert.Len(t, stations, 5)
}

func TestResolve_File(t *testing.T) {
	path := writeFile(t, "stations:\n  - iata: MDE\n    latitude: 6.16\n    longitude: -75.42\n")

	stations, err := Resolve(context.Background(), config.Config{SeedFile: path}, discard)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "MDE", stations[0].Code)
}

func TestResolve_SQLiteTakesPrecedence(t *testing.T) {
	cfg := config.Config{
		SeedSQLitePath: filepath.Join(t.TempDir(), "airports.db"),
		SeedFile:       "/does/not/exist.yaml",
		Driver:         "sqlite3",
		MaxOpenConns:   1,
		MaxIdleConns:   1,
	}
	ctx := context.Background()

	conn, err := db.Open(cfg, discard)
	require.NoError(t, err)
	require.NoError(t, catalog.Migrate(ctx, conn))
	_, err = catalog.Insert(ctx, conn, []types.Station{{Code: "SFO", Latitude: 37.619, Longitude: -122.375}})
	require.NoError(t, err)
	require.NoError(t, db.Close(conn))

	stations, err := Resolve(ctx, cfg, discard)
	require.NoError(t, err)
	assert.Equal(t, []types.Station{{Code: "SFO", Latitude: 37.619, Longitude: -122.375}}, stations)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	cfg := config.Config{
		SeedSQLitePath: filepath.Join(t.TempDir(), "fresh.db"),
		Driver:         "sqlite3",
	}
	stations, err := Resolve(context.Background(), cfg, discard)
	require.NoError(t, err)
	assert.Empty(t, stations)
}
