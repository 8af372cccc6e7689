// Package catalog stores the airport list in SQLite so a deployment can seed
// its station store from a curated database instead of the embedded list.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

// Load returns every catalog airport in insertion order.
func Load(ctx context.Context, db *sql.DB) ([]types.Station, error) {
	rows, err := db.QueryContext(ctx, `SELECT iata, latitude, longitude FROM airports ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer rows.Close()

	var out []types.Station
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.Code, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate airports: %w", err)
	}
	return out, nil
}

// Insert adds stations that are not yet in the catalog and reports how many
// were new. Existing codes keep their coordinates.
func Insert(ctx context.Context, db *sql.DB, stations []types.Station) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO airports (iata, latitude, longitude) VALUES (?, ?, ?) ON CONFLICT (iata) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, s := range stations {
		res, err := stmt.ExecContext(ctx, s.Code, s.Latitude, s.Longitude)
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", s.Code, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
