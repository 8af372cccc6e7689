package service

import (
	"github.com/DanielFallaP/airport-weather/internal/mqtt"
)

// RegisterMQTTHandler routes collector messages received over MQTT into
// SubmitObservation.
func (s *Service) RegisterMQTTHandler(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(func(obs mqtt.Observation) error {
		s.logger.Debug("processing mqtt observation",
			"station", obs.Station,
			"kind", obs.Kind,
		)
		return s.SubmitObservation(obs.Station, obs.Kind, obs.Measurement)
	})
}
