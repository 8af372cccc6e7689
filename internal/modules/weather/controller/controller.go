package controller

import (
	"log/slog"
	"net/http"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

// WeatherService is the subset of *service.Service the HTTP surface needs.
type WeatherService interface {
	CreateStation(code string, latitude, longitude float64) (types.Station, error)
	DeleteStation(code string)
	ListStations() []string
	GetStation(code string) (types.Station, error)
	SubmitObservation(code, kind string, m types.Measurement) error
	QueryWeather(code string, radius float64) ([]types.ObservationSet, error)
	HealthReport() types.HealthReport
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	service WeatherService
	logger  *slog.Logger
	exit    func()
}

// NewWeatherController builds the collector and query endpoints. A nil exit
// leaves /collect/exit unmounted.
func NewWeatherController(service WeatherService, logger *slog.Logger, exit func()) WeatherController {
	if logger == nil {
		logger = slog.Default()
	}
	return &weatherControllerImpl{service: service, logger: logger, exit: exit}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /collect/ping", c.handleCollectPing)
	mux.HandleFunc("POST /collect/weather/{iata}/{kind}", c.handleSubmitObservation)
	mux.HandleFunc("GET /collect/airports", c.handleListAirports)
	mux.HandleFunc("GET /collect/airport/{iata}", c.handleGetAirport)
	mux.HandleFunc("POST /collect/airport/{iata}/{lat}/{long}", c.handleCreateAirport)
	mux.HandleFunc("DELETE /collect/airport/{iata}", c.handleDeleteAirport)
	if c.exit != nil {
		mux.HandleFunc("GET /collect/exit", c.handleExit)
	}

	mux.HandleFunc("GET /query/ping", c.handleQueryPing)
	mux.HandleFunc("GET /query/weather/{iata}", c.handleQueryWeather)
	mux.HandleFunc("GET /query/weather/{iata}/{$}", c.handleQueryWeather)
	mux.HandleFunc("GET /query/weather/{iata}/{radius}", c.handleQueryWeather)
}
