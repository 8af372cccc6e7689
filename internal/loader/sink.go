package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/catalog"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

// Sink stores one airport. Implementations return an error wrapping
// types.ErrAlreadyExists for a known code.
type Sink interface {
	Add(ctx context.Context, station types.Station) error
}

// HTTPSink posts airports to a running collector.
type HTTPSink struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSink(baseURL string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSink{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSink) Add(ctx context.Context, station types.Station) error {
	target := fmt.Sprintf("%s/collect/airport/%s/%s/%s",
		s.baseURL,
		url.PathEscape(station.Code),
		strconv.FormatFloat(station.Latitude, 'f', -1, 64),
		strconv.FormatFloat(station.Longitude, 'f', -1, 64),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", station.Code, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("post %s: %w", station.Code, types.ErrAlreadyExists)
	default:
		return fmt.Errorf("post %s: status %d: %s", station.Code, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// CatalogSink writes airports straight into a SQLite catalog.
type CatalogSink struct {
	db *sql.DB
}

func NewCatalogSink(db *sql.DB) *CatalogSink {
	return &CatalogSink{db: db}
}

func (s *CatalogSink) Add(ctx context.Context, station types.Station) error {
	n, err := catalog.Insert(ctx, s.db, []types.Station{station})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("catalog %s: %w", station.Code, types.ErrAlreadyExists)
	}
	return nil
}
