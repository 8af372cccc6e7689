package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
	"github.com/DanielFallaP/airport-weather/internal/utils"
)

const maxBodyBytes = 1 << 16

// parseRadius reads the radius path segment in km. An empty segment means an
// exact station query.
func parseRadius(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid radius %q (expected number)", s)
	}
	return r, nil
}

// parseCoordinate parses a finite degree value within [-limit, limit].
func parseCoordinate(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q (expected number)", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, fmt.Errorf("value %v out of range [-%v, %v]", v, limit, limit)
	}
	return v, nil
}

func decodeMeasurement(r *http.Request) (types.Measurement, error) {
	var m types.Measurement
	if err := utils.DecodeJSON(r, maxBodyBytes, &m); err != nil {
		return types.Measurement{}, err
	}
	return m, nil
}

// writeServiceError maps service sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrAlreadyExists):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrInvalidMeasurement), errors.Is(err, types.ErrInvalidRadius):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("weather request failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
