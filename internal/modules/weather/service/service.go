package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/geo"
	"github.com/DanielFallaP/airport-weather/internal/metrics"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/repository"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/usage"
)

const (
	// DefaultFreshnessWindow bounds how old a reading may be to count in the
	// health report data size.
	DefaultFreshnessWindow = 24 * time.Hour

	// MaxRadiusKM caps query radii; the radius histogram is sized by the
	// largest recorded radius.
	MaxRadiusKM = 40000

	// defaultHistogramMax sizes the radius histogram before any query.
	defaultHistogramMax = 1000
)

// MetricsRecorder receives service events. *metrics.Recorder implements it.
type MetricsRecorder interface {
	RecordObservation(kind, result string)
	RecordQuery(radius float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordObservation(string, string) {}
func (nopRecorder) RecordQuery(float64)              {}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithFreshnessWindow(d time.Duration) Option {
	return func(s *Service) { s.freshness = d }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service exposes the collector and query operations over one station
// repository and one usage tracker.
type Service struct {
	repository repository.StationRepository
	usage      *usage.Tracker
	metrics    MetricsRecorder
	logger     *slog.Logger
	now        func() time.Time
	freshness  time.Duration
}

func NewService(repository repository.StationRepository, tracker *usage.Tracker, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		usage:      tracker,
		metrics:    nopRecorder{},
		logger:     slog.Default(),
		now:        time.Now,
		freshness:  DefaultFreshnessWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateStation(code string, latitude, longitude float64) (types.Station, error) {
	st, err := s.repository.Create(code, latitude, longitude)
	if err != nil {
		return types.Station{}, err
	}
	s.logger.Debug("station created", "station", code, "latitude", latitude, "longitude", longitude)
	return st, nil
}

func (s *Service) DeleteStation(code string) {
	if s.repository.Delete(code) {
		s.logger.Debug("station deleted", "station", code)
	}
}

func (s *Service) ListStations() []string {
	stations := s.repository.List()
	codes := make([]string, 0, len(stations))
	for _, st := range stations {
		codes = append(codes, st.Code)
	}
	return codes
}

func (s *Service) GetStation(code string) (types.Station, error) {
	st, ok := s.repository.Lookup(code)
	if !ok {
		return types.Station{}, fmt.Errorf("get %q: %w", code, types.ErrNotFound)
	}
	return st, nil
}

// SubmitObservation stores m as the current reading of the named kind.
func (s *Service) SubmitObservation(code, kindName string, m types.Measurement) error {
	kind, ok := types.ParseKind(kindName)
	if !ok {
		s.metrics.RecordObservation("unknown", metrics.ResultRejected)
		return fmt.Errorf("kind %q: %w", kindName, types.ErrInvalidMeasurement)
	}

	err := s.repository.Apply(code, kind, m)
	switch {
	case err == nil:
		s.metrics.RecordObservation(string(kind), metrics.ResultAccepted)
		s.logger.Debug("observation accepted", "station", code, "kind", kind, "mean", m.Mean)
		return nil
	case errors.Is(err, types.ErrNotFound):
		s.metrics.RecordObservation(string(kind), metrics.ResultUnknown)
	default:
		s.metrics.RecordObservation(string(kind), metrics.ResultRejected)
	}
	return err
}

// QueryWeather returns the observation sets with data within radius km of
// code. A zero radius selects only the station itself.
func (s *Service) QueryWeather(code string, radius float64) ([]types.ObservationSet, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 || radius > MaxRadiusKM {
		return nil, fmt.Errorf("radius %v: %w", radius, types.ErrInvalidRadius)
	}
	origin, ok := s.repository.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("query %q: %w", code, types.ErrNotFound)
	}

	s.usage.Record(code, radius)
	s.metrics.RecordQuery(radius)

	out := make([]types.ObservationSet, 0)
	if radius == 0 {
		if obs, ok := s.repository.Observations(code); ok && obs.HasData() {
			out = append(out, obs)
		}
		return out, nil
	}

	from := geo.Point{Latitude: origin.Latitude, Longitude: origin.Longitude}
	for _, so := range s.repository.Snapshot() {
		to := geo.Point{Latitude: so.Station.Latitude, Longitude: so.Station.Longitude}
		if geo.Distance(from, to) <= radius && so.Observations.HasData() {
			out = append(out, so.Observations)
		}
	}
	return out, nil
}

// HealthReport summarizes data freshness and query usage.
func (s *Service) HealthReport() types.HealthReport {
	snapshot := s.repository.Snapshot()
	counts := s.usage.Snapshot()
	cutoff := s.now().Add(-s.freshness)

	report := types.HealthReport{
		StationFrequency: make(map[string]*float64, len(snapshot)),
	}

	total := counts.Total()
	for _, so := range snapshot {
		if so.Observations.HasData() && so.Observations.LastUpdate.After(cutoff) {
			report.DataSize++
		}
		if total == 0 {
			report.StationFrequency[so.Station.Code] = nil
			continue
		}
		share := float64(counts.Stations[so.Station.Code]) / float64(total)
		report.StationFrequency[so.Station.Code] = &share
	}

	report.RadiusHistogram = radiusHistogram(counts.Radii)
	return report
}

// radiusHistogram buckets counts by truncated radius.
func radiusHistogram(radii map[float64]int64) []int {
	maxIdx := defaultHistogramMax
	if len(radii) > 0 {
		maxIdx = 0
		for r := range radii {
			maxIdx = max(maxIdx, int(r))
		}
	}

	hist := make([]int, maxIdx+1)
	for r, n := range radii {
		hist[int(r)] += int(n)
	}
	return hist
}

// Reinitialize clears all stations, observations and usage counters and
// loads seed. An invalid seed leaves the service untouched.
func (s *Service) Reinitialize(seed []types.Station) error {
	if err := s.repository.Reset(seed); err != nil {
		return err
	}
	s.usage.Reset()
	s.logger.Info("store initialized", "stations", len(seed))
	return nil
}

// StationCount reports how many airports are known.
func (s *Service) StationCount() int {
	return s.repository.Count()
}
