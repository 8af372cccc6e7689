package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

type StationRepository interface {
	Lookup(code string) (types.Station, bool)
	Create(code string, latitude, longitude float64) (types.Station, error)
	Delete(code string) bool
	List() []types.Station
	Reset(seed []types.Station) error
	Apply(code string, kind types.Kind, m types.Measurement) error
	Observations(code string) (types.ObservationSet, bool)
	Snapshot() []types.StationObservations
	Count() int
}

// entry keeps a station and its observation set together so that no reader
// sees one without the other.
type entry struct {
	station      types.Station
	observations types.ObservationSet
}

type repositoryImpl struct {
	mu      sync.RWMutex
	entries []*entry
	byCode  map[string]*entry
	now     func() time.Time
}

// NewRepository returns an empty in-memory station repository. A nil clock
// falls back to time.Now.
func NewRepository(now func() time.Time) StationRepository {
	if now == nil {
		now = time.Now
	}
	return &repositoryImpl{
		byCode: make(map[string]*entry),
		now:    now,
	}
}

func (r *repositoryImpl) Lookup(code string) (types.Station, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byCode[code]
	if !ok {
		return types.Station{}, false
	}
	return e.station, true
}

func (r *repositoryImpl) Create(code string, latitude, longitude float64) (types.Station, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createLocked(code, latitude, longitude)
}

func (r *repositoryImpl) createLocked(code string, latitude, longitude float64) (types.Station, error) {
	if _, exists := r.byCode[code]; exists {
		return types.Station{}, fmt.Errorf("create %q: %w", code, types.ErrAlreadyExists)
	}
	e := &entry{station: types.Station{Code: code, Latitude: latitude, Longitude: longitude}}
	r.entries = append(r.entries, e)
	r.byCode[code] = e
	return e.station, nil
}

// Delete removes the station and its observations. Deleting an unknown code
// is a no-op reported as false.
func (r *repositoryImpl) Delete(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byCode[code]
	if !ok {
		return false
	}
	delete(r.byCode, code)
	for i, candidate := range r.entries {
		if candidate == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return true
}

func (r *repositoryImpl) List() []types.Station {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Station, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.station)
	}
	return out
}

// Reset replaces every station and observation with seed, in order. A seed
// with a duplicate code is rejected and the current contents are kept.
func (r *repositoryImpl) Reset(seed []types.Station) error {
	entries := make([]*entry, 0, len(seed))
	byCode := make(map[string]*entry, len(seed))
	for _, s := range seed {
		if _, exists := byCode[s.Code]; exists {
			return fmt.Errorf("reset: create %q: %w", s.Code, types.ErrAlreadyExists)
		}
		e := &entry{station: s}
		entries = append(entries, e)
		byCode[s.Code] = e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = entries
	r.byCode = byCode
	return nil
}

// Apply validates m against kind and stores it together with a fresh update
// time. Rejected measurements leave the set untouched.
func (r *repositoryImpl) Apply(code string, kind types.Kind, m types.Measurement) error {
	if !kind.Accepts(m.Mean) {
		return fmt.Errorf("%s mean %v: %w", kind, m.Mean, types.ErrInvalidMeasurement)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byCode[code]
	if !ok {
		return fmt.Errorf("apply %q: %w", code, types.ErrNotFound)
	}
	stored := m
	if !e.observations.Set(kind, &stored) {
		return fmt.Errorf("kind %q: %w", kind, types.ErrInvalidMeasurement)
	}
	e.observations.LastUpdate = r.now()
	return nil
}

func (r *repositoryImpl) Observations(code string) (types.ObservationSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byCode[code]
	if !ok {
		return types.ObservationSet{}, false
	}
	return e.observations, true
}

func (r *repositoryImpl) Snapshot() []types.StationObservations {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.StationObservations, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, types.StationObservations{Station: e.station, Observations: e.observations})
	}
	return out
}

func (r *repositoryImpl) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
