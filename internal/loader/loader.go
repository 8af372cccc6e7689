// Package loader bulk-loads airports from an airports.dat file into a running
// collector or a SQLite catalog.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"
)

// Summary counts the outcome of a load.
type Summary struct {
	Created int
	Skipped int
	Failed  int
}

type Loader struct {
	sink    Sink
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New paces sink calls at rps with the given burst. rps <= 0 disables pacing.
func New(sink Sink, rps float64, burst int, logger *slog.Logger) *Loader {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		sink:    sink,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Load sends every station to the sink. Existing airports count as skipped;
// other failures are aggregated. Cancelling ctx stops the load and returns
// the context error alongside what was already collected.
func (l *Loader) Load(ctx context.Context, stations []types.Station) (Summary, error) {
	var (
		summary Summary
		result  *multierror.Error
	)
	for _, st := range stations {
		if err := l.limiter.Wait(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("rate limit wait canceled: %w", err))
			return summary, result.ErrorOrNil()
		}

		err := l.sink.Add(ctx, st)
		switch {
		case err == nil:
			summary.Created++
			l.logger.Debug("airport loaded", "station", st.Code)
		case errors.Is(err, types.ErrAlreadyExists):
			summary.Skipped++
			l.logger.Debug("airport already present", "station", st.Code)
		default:
			summary.Failed++
			result = multierror.Append(result, err)
			l.logger.Warn("airport load failed", "station", st.Code, "error", err)
		}
	}
	return summary, result.ErrorOrNil()
}
