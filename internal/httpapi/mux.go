package httpapi

import (
	"net/http"
)

// NewMux returns a mux with the infrastructure endpoints mounted. A nil
// metrics handler leaves /metrics unmounted.
func NewMux(stations StationCounter, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, stations)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
