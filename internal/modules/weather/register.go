package weather

import (
	"log/slog"
	"net/http"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/controller"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/service"
	"github.com/DanielFallaP/airport-weather/internal/mqtt"
)

// RegisterFeature mounts the collector and query endpoints on mux and, when
// subscriber is non-nil, routes MQTT observations into svc. exit may be nil.
func RegisterFeature(mux *http.ServeMux, svc *service.Service, subscriber mqtt.MQTTSubscriber, logger *slog.Logger, exit func()) {
	weatherController := controller.NewWeatherController(svc, logger, exit)
	weatherController.RegisterRoutes(mux)

	if subscriber != nil {
		svc.RegisterMQTTHandler(subscriber)
	}
}
