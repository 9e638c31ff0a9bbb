package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"plexshelf/internal/logging"
	"plexshelf/internal/seriesmatch"
	"plexshelf/internal/services"
)

// ErrRateLimited marks provider failures caused by the remote quota. Throttled
// backs off when it sees one.
var ErrRateLimited = errors.New("rate limited")

// Provider looks up one title. A nil error means the result is Found or
// Unknown; any failure is returned as an error.
type Provider interface {
	Name() string
	Query(ctx context.Context, req seriesmatch.LookupRequest) (seriesmatch.LookupResult, error)
}

// AsLookup adapts a provider to the engine's lookup contract.
func AsLookup(p Provider, logger *slog.Logger) seriesmatch.Lookup {
	return &lookupAdapter{
		provider: p,
		logger:   logging.NewComponentLogger(logger, "enrichment").With(logging.String("provider", p.Name())),
	}
}

type lookupAdapter struct {
	provider Provider
	logger   *slog.Logger
}

func (a *lookupAdapter) Lookup(ctx context.Context, req seriesmatch.LookupRequest) seriesmatch.LookupResult {
	res, err := a.provider.Query(ctx, req)
	if err == nil {
		logging.WithContext(ctx, a.logger).Debug("series lookup",
			logging.String("title", req.Title),
			logging.String("outcome", res.Outcome.String()),
			logging.String(logging.FieldSeries, res.SeriesName),
		)
		return res
	}
	reason := failureReason(ctx, err)
	logging.WarnWithContext(logging.WithContext(ctx, a.logger), "series lookup unavailable", "enrichment_unavailable",
		logging.String("title", req.Title),
		logging.String("reason", reason),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check provider credentials and quota"),
		logging.String(logging.FieldImpact, "item matched from local evidence only"),
	)
	return seriesmatch.Unavailable(reason)
}

func failureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "lookup timed out"
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return "lookup cancelled"
	case errors.Is(err, ErrRateLimited):
		return "quota exceeded"
	}
	return strings.TrimPrefix(err.Error(), services.ErrLookupUnavailable.Error()+": ")
}

// unavailable tags a provider failure for classification.
func unavailable(provider, operation, message string, err error) error {
	return services.Wrap(services.ErrLookupUnavailable, provider, operation, message, err)
}
