package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

type submitCall struct {
	code, kind string
	m          types.Measurement
}

type queryCall struct {
	code   string
	radius float64
}

type mockService struct {
	stations  map[string]types.Station
	order     []string
	submitErr error
	queryErr  error
	results   []types.ObservationSet
	report    types.HealthReport

	submits []submitCall
	queries []queryCall
	deleted []string
}

func newMockService() *mockService {
	return &mockService{stations: map[string]types.Station{}}
}

func (m *mockService) CreateStation(code string, lat, long float64) (types.Station, error) {
	if _, ok := m.stations[code]; ok {
		return types.Station{}, fmt.Errorf("create %q: %w", code, types.ErrAlreadyExists)
	}
	st := types.Station{Code: code, Latitude: lat, Longitude: long}
	m.stations[code] = st
	m.order = append(m.order, code)
	return st, nil
}

func (m *mockService) DeleteStation(code string) {
	m.deleted = append(m.deleted, code)
	delete(m.stations, code)
}

func (m *mockService) ListStations() []string {
	out := make([]string, 0, len(m.order))
	for _, code := range m.order {
		if _, ok := m.stations[code]; ok {
			out = append(out, code)
		}
	}
	return out
}

func (m *mockService) GetStation(code string) (types.Station, error) {
	st, ok := m.stations[code]
	if !ok {
		return types.Station{}, fmt.Errorf("get %q: %w", code, types.ErrNotFound)
	}
	return st, nil
}

func (m *mockService) SubmitObservation(code, kind string, meas types.Measurement) error {
	m.submits = append(m.submits, submitCall{code, kind, meas})
	return m.submitErr
}

func (m *mockService) QueryWeather(code string, radius float64) ([]types.ObservationSet, error) {
	m.queries = append(m.queries, queryCall{code, radius})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.results, nil
}

func (m *mockService) HealthReport() types.HealthReport {
	return m.report
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(svc WeatherService, exit func()) *http.ServeMux {
	mux := http.NewServeMux()
	NewWeatherController(svc, discardLogger(), exit).RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func Test_handleCollectPing(t *testing.T) {
	rec := serve(newTestMux(newMockService(), nil), http.MethodGet, "/collect/ping", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `"ready"` {
		t.Errorf("body = %s; want \"ready\"", got)
	}
}

func Test_handleSubmitObservation(t *testing.T) {
	t.Run("forwards path values and body", func(t *testing.T) {
		svc := newMockService()
		rec := serve(newTestMux(svc, nil), http.MethodPost, "/collect/weather/BOS/wind",
			`{"mean":22,"first":10,"second":20,"third":30,"count":10}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		want := submitCall{"BOS", "wind", types.Measurement{Mean: 22, First: 10, Second: 20, Third: 30, Count: 10}}
		if len(svc.submits) != 1 || svc.submits[0] != want {
			t.Errorf("submits = %+v; want [%+v]", svc.submits, want)
		}
	})

	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
	}{
		{name: "invalid json", body: `{mean`, wantStatus: http.StatusBadRequest},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "invalid measurement", body: `{"mean":-1}`, submitErr: fmt.Errorf("x: %w", types.ErrInvalidMeasurement), wantStatus: http.StatusBadRequest},
		{name: "unknown station", body: `{"mean":1}`, submitErr: fmt.Errorf("x: %w", types.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "unexpected failure", body: `{"mean":1}`, submitErr: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			svc.submitErr = tt.submitErr

			rec := serve(newTestMux(svc, nil), http.MethodPost, "/collect/weather/BOS/wind", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			body := decodeErrorBody(t, rec)
			if body["error"] != http.StatusText(tt.wantStatus) {
				t.Errorf("error = %q; want %q", body["error"], http.StatusText(tt.wantStatus))
			}
		})
	}
}

func Test_airportLifecycle(t *testing.T) {
	svc := newMockService()
	mux := newTestMux(svc, nil)

	rec := serve(mux, http.MethodPost, "/collect/airport/MDE/20.89/40.98", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d; want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = serve(mux, http.MethodPost, "/collect/airport/MDE/1/1", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d; want %d", rec.Code, http.StatusConflict)
	}

	rec = serve(mux, http.MethodGet, "/collect/airport/MDE", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d; want %d", rec.Code, http.StatusOK)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode station: %v", err)
	}
	if got["iata"] != "MDE" || got["latitude"] != 20.89 || got["longitude"] != 40.98 {
		t.Errorf("station = %v", got)
	}

	rec = serve(mux, http.MethodGet, "/collect/airports", "")
	var codes []string
	if err := json.Unmarshal(rec.Body.Bytes(), &codes); err != nil {
		t.Fatalf("decode airports: %v", err)
	}
	if len(codes) != 1 || codes[0] != "MDE" {
		t.Errorf("airports = %v; want [MDE]", codes)
	}

	rec = serve(mux, http.MethodDelete, "/collect/airport/MDE", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d; want %d", rec.Code, http.StatusOK)
	}
	rec = serve(mux, http.MethodDelete, "/collect/airport/MDE", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second delete status = %d; want %d", rec.Code, http.StatusOK)
	}

	rec = serve(mux, http.MethodGet, "/collect/airport/MDE", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d; want %d", rec.Code, http.StatusNotFound)
	}
}

func Test_handleCreateAirport_BadCoordinates(t *testing.T) {
	for _, target := range []string{
		"/collect/airport/MDE/north/40",
		"/collect/airport/MDE/20/east",
		"/collect/airport/MDE/91/40",
		"/collect/airport/MDE/20/-181",
		"/collect/airport/MDE/NaN/40",
	} {
		svc := newMockService()
		rec := serve(newTestMux(svc, nil), http.MethodPost, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d; want %d", target, rec.Code, http.StatusBadRequest)
		}
		if len(svc.stations) != 0 {
			t.Errorf("%s: station created despite bad coordinates", target)
		}
	}
}

func Test_handleQueryWeather(t *testing.T) {
	now := time.UnixMilli(1738411200000)
	tests := []struct {
		target     string
		wantRadius float64
	}{
		{"/query/weather/BOS/0", 0},
		{"/query/weather/BOS/250.5", 250.5},
		{"/query/weather/BOS/", 0},
		{"/query/weather/BOS", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc := newMockService()
			svc.results = []types.ObservationSet{{Wind: &types.Measurement{Mean: 5}, LastUpdate: now}}

			rec := serve(newTestMux(svc, nil), http.MethodGet, tt.target, "")

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d; want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
			}
			if len(svc.queries) != 1 || svc.queries[0] != (queryCall{"BOS", tt.wantRadius}) {
				t.Errorf("queries = %+v; want BOS r=%v", svc.queries, tt.wantRadius)
			}
			var got []map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != 1 || got[0]["lastUpdateTime"] != float64(1738411200000) {
				t.Errorf("body = %s", rec.Body.String())
			}
			if _, ok := got[0]["temperature"]; ok {
				t.Errorf("absent kind serialized: %s", rec.Body.String())
			}
		})
	}
}

func Test_handleQueryWeather_EmptyResultIsArray(t *testing.T) {
	svc := newMockService()
	svc.results = []types.ObservationSet{}

	rec := serve(newTestMux(svc, nil), http.MethodGet, "/query/weather/BOS/0", "")

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s; want []", got)
	}
}

func Test_handleQueryWeather_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		queryErr   error
		wantStatus int
		wantCalls  int
	}{
		{name: "non numeric radius", target: "/query/weather/BOS/far", wantStatus: http.StatusBadRequest},
		{name: "invalid radius", target: "/query/weather/BOS/-5", queryErr: fmt.Errorf("x: %w", types.ErrInvalidRadius), wantStatus: http.StatusBadRequest, wantCalls: 1},
		{name: "unknown station", target: "/query/weather/XXX/10", queryErr: fmt.Errorf("x: %w", types.ErrNotFound), wantStatus: http.StatusNotFound, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			svc.queryErr = tt.queryErr

			rec := serve(newTestMux(svc, nil), http.MethodGet, tt.target, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if len(svc.queries) != tt.wantCalls {
				t.Errorf("service calls = %d; want %d", len(svc.queries), tt.wantCalls)
			}
		})
	}
}

func Test_handleQueryPing(t *testing.T) {
	share := 1.0
	svc := newMockService()
	svc.report = types.HealthReport{
		DataSize:         1,
		StationFrequency: map[string]*float64{"BOS": &share, "JFK": nil},
		RadiusHistogram:  []int{0, 1},
	}

	rec := serve(newTestMux(svc, nil), http.MethodGet, "/query/ping", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	var got struct {
		DataSize   int                 `json:"datasize"`
		IataFreq   map[string]*float64 `json:"iata_freq"`
		RadiusFreq []int               `json:"radius_freq"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DataSize != 1 || got.IataFreq["JFK"] != nil || *got.IataFreq["BOS"] != 1 || len(got.RadiusFreq) != 2 {
		t.Errorf("report = %s", rec.Body.String())
	}
}

func Test_handleExit(t *testing.T) {
	t.Run("not mounted without hook", func(t *testing.T) {
		rec := serve(newTestMux(newMockService(), nil), http.MethodGet, "/collect/exit", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invokes hook", func(t *testing.T) {
		called := false
		rec := serve(newTestMux(newMockService(), func() { called = true }), http.MethodGet, "/collect/exit", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNoContent)
		}
		if !called {
			t.Error("exit hook not called")
		}
	})

	t.Run("logs through injected logger", func(t *testing.T) {
		var logs bytes.Buffer
		mux := http.NewServeMux()
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		NewWeatherController(newMockService(), logger, func() {}).RegisterRoutes(mux)

		serve(mux, http.MethodGet, "/collect/exit", "")
		if !strings.Contains(logs.String(), "exit requested") {
			t.Errorf("logs = %q; want exit requested", logs.String())
		}
	})
}
