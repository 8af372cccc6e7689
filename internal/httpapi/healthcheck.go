package httpapi

import (
	"net/http"

	"github.com/DanielFallaP/airport-weather/internal/utils"
)

// StationCounter reports how many airports the store knows.
type StationCounter interface {
	StationCount() int
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	stations StationCounter
}

func NewHealthchecker(stations StationCounter) healthchecker {
	return &healthcheckerImpl{stations: stations}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"stations": h.stations.StationCount(),
	})
}

func registerHealthcheck(mux *http.ServeMux, stations StationCounter) {
	healthchecker := NewHealthchecker(stations)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
