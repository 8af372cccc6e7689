package types

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrAlreadyExists      = errors.New("station already exists")
	ErrNotFound           = errors.New("station not found")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrInvalidRadius      = errors.New("invalid radius")
)

// Station is an airport identified by its IATA code.
type Station struct {
	Code      string  `json:"iata" yaml:"iata"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Measurement summarizes the samples collected for one kind of reading.
type Measurement struct {
	Mean   float64 `json:"mean"`
	First  int     `json:"first"`
	Second int     `json:"second"`
	Third  int     `json:"third"`
	Count  int     `json:"count"`
}

type Kind string

const (
	KindWind          Kind = "wind"
	KindTemperature   Kind = "temperature"
	KindHumidity      Kind = "humidity"
	KindPressure      Kind = "pressure"
	KindCloudCover    Kind = "cloudcover"
	KindPrecipitation Kind = "precipitation"
)

// Kinds lists every measurement kind in report order.
var Kinds = []Kind{
	KindWind,
	KindTemperature,
	KindHumidity,
	KindPressure,
	KindCloudCover,
	KindPrecipitation,
}

// ParseKind matches s against the known kinds ignoring case.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Accepts reports whether mean lies in the accepted range for k.
func (k Kind) Accepts(mean float64) bool {
	if math.IsNaN(mean) {
		return false
	}
	switch k {
	case KindWind, KindPressure, KindPrecipitation:
		return mean >= 0
	case KindTemperature:
		return mean >= -50 && mean < 100
	case KindHumidity, KindCloudCover:
		return mean >= 0 && mean <= 100
	default:
		return false
	}
}

// ObservationSet holds the latest accepted reading per kind for one station.
// Stored measurements are never mutated in place, so copies may share them.
type ObservationSet struct {
	Wind          *Measurement
	Temperature   *Measurement
	Humidity      *Measurement
	Pressure      *Measurement
	CloudCover    *Measurement
	Precipitation *Measurement
	LastUpdate    time.Time
}

func (o ObservationSet) HasData() bool {
	return o.Wind != nil ||
		o.Temperature != nil ||
		o.Humidity != nil ||
		o.Pressure != nil ||
		o.CloudCover != nil ||
		o.Precipitation != nil
}

// Get returns the reading stored for k, or nil.
func (o ObservationSet) Get(k Kind) *Measurement {
	switch k {
	case KindWind:
		return o.Wind
	case KindTemperature:
		return o.Temperature
	case KindHumidity:
		return o.Humidity
	case KindPressure:
		return o.Pressure
	case KindCloudCover:
		return o.CloudCover
	case KindPrecipitation:
		return o.Precipitation
	default:
		return nil
	}
}

// Set stores m under k. It reports false for an unknown kind.
func (o *ObservationSet) Set(k Kind, m *Measurement) bool {
	switch k {
	case KindWind:
		o.Wind = m
	case KindTemperature:
		o.Temperature = m
	case KindHumidity:
		o.Humidity = m
	case KindPressure:
		o.Pressure = m
	case KindCloudCover:
		o.CloudCover = m
	case KindPrecipitation:
		o.Precipitation = m
	default:
		return false
	}
	return true
}

type observationSetJSON struct {
	Wind           *Measurement `json:"wind,omitempty"`
	Temperature    *Measurement `json:"temperature,omitempty"`
	Humidity       *Measurement `json:"humidity,omitempty"`
	Pressure       *Measurement `json:"pressure,omitempty"`
	CloudCover     *Measurement `json:"cloudCover,omitempty"`
	Precipitation  *Measurement `json:"precipitation,omitempty"`
	LastUpdateTime int64        `json:"lastUpdateTime"`
}

// MarshalJSON writes the last update as epoch milliseconds.
func (o ObservationSet) MarshalJSON() ([]byte, error) {
	var ms int64
	if !o.LastUpdate.IsZero() {
		ms = o.LastUpdate.UnixMilli()
	}
	return json.Marshal(observationSetJSON{
		Wind:           o.Wind,
		Temperature:    o.Temperature,
		Humidity:       o.Humidity,
		Pressure:       o.Pressure,
		CloudCover:     o.CloudCover,
		Precipitation:  o.Precipitation,
		LastUpdateTime: ms,
	})
}

func (o *ObservationSet) UnmarshalJSON(data []byte) error {
	var raw observationSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = ObservationSet{
		Wind:          raw.Wind,
		Temperature:   raw.Temperature,
		Humidity:      raw.Humidity,
		Pressure:      raw.Pressure,
		CloudCover:    raw.CloudCover,
		Precipitation: raw.Precipitation,
	}
	if raw.LastUpdateTime != 0 {
		o.LastUpdate = time.UnixMilli(raw.LastUpdateTime)
	}
	return nil
}

// StationObservations pairs a station with its observation set.
type StationObservations struct {
	Station      Station
	Observations ObservationSet
}

// HealthReport is the ping payload of the query surface.
type HealthReport struct {
	DataSize         int                 `json:"datasize"`
	StationFrequency map[string]*float64 `json:"iata_freq"`
	RadiusHistogram  []int               `json:"radius_freq"`
}
