package city

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pogodnik/pogodnik/app/observability/metrics"
	"github.com/pogodnik/pogodnik/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for the search ledger.
type Service interface {
	// RecordSearch registers one search of a normalized city name:
	// get-or-create the city, then upsert-increment its visit counter.
	RecordSearch(ctx context.Context, name string) error
	// Autocomplete returns stored city names starting with prefix.
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)
	// Statistics returns the visit counter for every city ever searched.
	Statistics(ctx context.Context) ([]types.CitySearchStat, error)
}

// DefaultAutocompleteLimit caps suggestion lists when the caller gives no limit.
const DefaultAutocompleteLimit = 10

// Autocomplete hits the cities table on every keystroke, so results are kept
// in a short-lived cache. Geocoding and forecast lookups are never cached.
const autocompleteCacheTTL = 30 * time.Second

type ServiceImpl struct {
	logger *slog.Logger
	repo   SearchLedgerRepo
	cache  *gocache.Cache
}

func NewCityService(repo SearchLedgerRepo, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  gocache.New(autocompleteCacheTTL, 2*autocompleteCacheTTL),
	}
}

// RecordSearch registers one search of a normalized city name.
func (s *ServiceImpl) RecordSearch(ctx context.Context, name string) error {
	ctx, span := otel.Tracer("CityService").Start(ctx, "RecordSearch", trace.WithAttributes(
		attribute.String("city.name", name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "RecordSearch"), slog.String("city", name))

	entry, err := s.repo.RecordSearch(ctx, name)
	if err != nil {
		l.ErrorContext(ctx, "Failed to record search", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record search")
		return fmt.Errorf("error recording search: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.SearchesTotal.Add(ctx, 1)
	}

	l.InfoContext(ctx, "Search recorded", slog.Int("count", entry.Count))
	span.SetStatus(codes.Ok, "Search recorded")
	return nil
}

// Autocomplete returns stored city names starting with prefix, newest cache
// entry winning within the TTL. A zero-length prefix returns an empty list
// without touching the store.
func (s *ServiceImpl) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "Autocomplete", trace.WithAttributes(
		attribute.String("city.prefix", prefix),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Autocomplete"), slog.String("prefix", prefix))

	if prefix == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultAutocompleteLimit
	}

	cacheKey := fmt.Sprintf("%s|%d", prefix, limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		span.SetStatus(codes.Ok, "Served from cache")
		return cached.([]string), nil
	}

	names, err := s.repo.CitiesByPrefix(ctx, prefix, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch autocomplete suggestions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch autocomplete suggestions")
		return nil, fmt.Errorf("error fetching autocomplete suggestions: %w", err)
	}

	s.cache.SetDefault(cacheKey, names)

	l.DebugContext(ctx, "Autocomplete suggestions fetched", slog.Int("count", len(names)))
	span.SetStatus(codes.Ok, "Autocomplete suggestions fetched")
	return names, nil
}

// Statistics returns the visit counter for every city ever searched.
func (s *ServiceImpl) Statistics(ctx context.Context) ([]types.CitySearchStat, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "Statistics")
	defer span.End()

	l := s.logger.With(slog.String("method", "Statistics"))

	stats, err := s.repo.AllStats(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch search statistics", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch search statistics")
		return nil, fmt.Errorf("error fetching search statistics: %w", err)
	}

	l.InfoContext(ctx, "Search statistics fetched", slog.Int("count", len(stats)))
	span.SetStatus(codes.Ok, "Search statistics fetched")
	return stats, nil
}
