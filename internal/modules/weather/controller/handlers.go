package controller

import (
	"net/http"

	"github.com/DanielFallaP/airport-weather/internal/utils"
)

func (c *weatherControllerImpl) handleCollectPing(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, "ready")
}

func (c *weatherControllerImpl) handleSubmitObservation(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("iata")
	kind := r.PathValue("kind")

	m, err := decodeMeasurement(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.service.SubmitObservation(code, kind, m); err != nil {
		writeServiceError(w, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (c *weatherControllerImpl) handleListAirports(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.ListStations())
}

func (c *weatherControllerImpl) handleGetAirport(w http.ResponseWriter, r *http.Request) {
	station, err := c.service.GetStation(r.PathValue("iata"))
	if err != nil {
		writeServiceError(w, c.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, station)
}

func (c *weatherControllerImpl) handleCreateAirport(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("iata")

	lat, err := parseCoordinate(r.PathValue("lat"), 90)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "latitude: "+err.Error())
		return
	}
	long, err := parseCoordinate(r.PathValue("long"), 180)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "longitude: "+err.Error())
		return
	}

	station, err := c.service.CreateStation(code, lat, long)
	if err != nil {
		writeServiceError(w, c.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, station)
}

func (c *weatherControllerImpl) handleDeleteAirport(w http.ResponseWriter, r *http.Request) {
	c.service.DeleteStation(r.PathValue("iata"))
	w.WriteHeader(http.StatusOK)
}

func (c *weatherControllerImpl) handleExit(w http.ResponseWriter, r *http.Request) {
	c.logger.Warn("exit requested", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
	c.exit()
}

func (c *weatherControllerImpl) handleQueryPing(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.HealthReport())
}

func (c *weatherControllerImpl) handleQueryWeather(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("iata")

	radius, err := parseRadius(r.PathValue("radius"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	observations, err := c.service.QueryWeather(code, radius)
	if err != nil {
		writeServiceError(w, c.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}
