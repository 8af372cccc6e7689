// Package usage counts weather queries per station and per requested radius.
package usage

import (
	"maps"
	"sync"
)

// Snapshot is a point-in-time copy of the query counters.
type Snapshot struct {
	Stations map[string]int64
	Radii    map[float64]int64
}

// Total returns the number of recorded station queries.
func (s Snapshot) Total() int64 {
	var total int64
	for _, n := range s.Stations {
		total += n
	}
	return total
}

type Tracker struct {
	mu       sync.Mutex
	stations map[string]int64
	radii    map[float64]int64
}

func NewTracker() *Tracker {
	return &Tracker{
		stations: make(map[string]int64),
		radii:    make(map[float64]int64),
	}
}

// Record counts one query for code with the given radius in km.
func (t *Tracker) Record(code string, radius float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stations[code]++
	t.radii[radius]++
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Stations: maps.Clone(t.stations),
		Radii:    maps.Clone(t.radii),
	}
}

// Reset clears both counters. Only used when the store is reinitialized.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.stations)
	clear(t.radii)
}
