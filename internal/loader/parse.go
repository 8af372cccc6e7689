package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

// airports.dat column positions.
const (
	colIATA      = 4
	colLatitude  = 6
	colLongitude = 7
)

// missingValue marks an absent column in airports.dat.
const missingValue = `\N`

// Parse reads airports.dat records. Rows without an IATA code are skipped
// and reported in skipped; malformed rows are collected into the returned
// error while parsing continues.
func Parse(r io.Reader) (stations []types.Station, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var result *multierror.Error
	for line := 1; ; line++ {
		rec, readErr := cr.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: %w", line, readErr))
			continue
		}
		if len(rec) <= colLongitude {
			result = multierror.Append(result, fmt.Errorf("line %d: want at least %d fields, got %d", line, colLongitude+1, len(rec)))
			continue
		}

		code := strings.TrimSpace(rec[colIATA])
		if code == "" || code == missingValue {
			skipped++
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[colLatitude]), 64)
		long, longErr := strconv.ParseFloat(strings.TrimSpace(rec[colLongitude]), 64)
		if latErr != nil || longErr != nil {
			result = multierror.Append(result, fmt.Errorf("line %d (%s): invalid coordinates %q, %q", line, code, rec[colLatitude], rec[colLongitude]))
			continue
		}
		stations = append(stations, types.Station{Code: code, Latitude: lat, Longitude: long})
	}
	return stations, skipped, result.ErrorOrNil()
}
