package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pogodnik/pogodnik/internal/api"
	"github.com/pogodnik/pogodnik/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service runs the two-stage city-to-weather pipeline: geocode, then fetch.
// Either both stages succeed or the whole pipeline reports api.ErrNotFound;
// there are no partial results.
type Service interface {
	GetWeather(ctx context.Context, cityName string) (*types.WeatherReading, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	resolver GeoResolver
	fetcher  WeatherFetcher
}

func NewWeatherService(resolver GeoResolver, fetcher WeatherFetcher, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		resolver: resolver,
		fetcher:  fetcher,
	}
}

// GetWeather resolves the city to coordinates and fetches current conditions.
// The forecast stage is never invoked when geocoding fails. The returned
// reading echoes cityName exactly as given.
func (s *ServiceImpl) GetWeather(ctx context.Context, cityName string) (*types.WeatherReading, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "GetWeather", trace.WithAttributes(
		attribute.String("city.name", cityName),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetWeather"), slog.String("city", cityName))

	coords, err := s.resolver.Resolve(ctx, cityName)
	if err != nil {
		// An unknown city and a failed lookup are indistinguishable here;
		// both end the pipeline before the forecast stage.
		l.InfoContext(ctx, "Geocoding failed, skipping forecast", slog.Any("error", err))
		span.SetStatus(codes.Error, "Geocoding failed")
		if errors.Is(err, api.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("weather for %q unavailable: %w", cityName, api.ErrNotFound)
	}

	reading, err := s.fetcher.Fetch(ctx, *coords)
	if err != nil {
		l.ErrorContext(ctx, "Forecast fetch failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast fetch failed")
		return nil, fmt.Errorf("weather for %q unavailable: %w", cityName, api.ErrNotFound)
	}

	// The fetcher only knows coordinates; the requested name is stamped here.
	reading.City = cityName

	l.InfoContext(ctx, "Weather resolved", slog.Float64("temperature", reading.Temperature))
	span.SetStatus(codes.Ok, "Weather resolved")
	return reading, nil
}
