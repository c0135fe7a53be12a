package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pogodnik/pogodnik/app/observability/metrics"
	"github.com/pogodnik/pogodnik/config"
	"github.com/pogodnik/pogodnik/internal/api"
	"github.com/pogodnik/pogodnik/internal/types"
)

var _ GeoResolver = (*OpenMeteoGeocoder)(nil)

// GeoResolver maps a normalized city name to geographic coordinates.
// An unknown city surfaces as api.ErrNotFound; transport and decode failures
// surface as plain errors. Single attempt, no retry.
type GeoResolver interface {
	Resolve(ctx context.Context, cityName string) (*types.Coordinates, error)
}

const defaultLookupTimeout = 10 * time.Second

// OpenMeteoGeocoder resolves city names against the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	language string
}

func NewOpenMeteoGeocoder(cfg config.OpenMeteo, logger *slog.Logger) *OpenMeteoGeocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &OpenMeteoGeocoder{
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.GeocodingURL,
		language: cfg.Language,
	}
}

func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, cityName string) (*types.Coordinates, error) {
	ctx, span := otel.Tracer("GeoResolver").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("city.name", cityName),
	))
	defer span.End()

	l := g.logger.With(slog.String("method", "Resolve"), slog.String("city", cityName))
	l.DebugContext(ctx, "Requesting coordinates for city")

	params := url.Values{}
	params.Set("name", cityName)
	params.Set("count", "1") // exactly one match
	params.Set("language", g.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if m := metrics.Get(); m != nil {
		m.GeocodeDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		l.ErrorContext(ctx, "Geocoding request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocoding request failed")
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.ErrorContext(ctx, "Geocoding returned bad status", slog.Int("status", resp.StatusCode))
		span.SetStatus(codes.Error, "Geocoding returned bad status")
		return nil, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		l.ErrorContext(ctx, "Failed to decode geocoding response", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to decode geocoding response")
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(payload.Results) == 0 {
		l.InfoContext(ctx, "City not found by geocoder")
		span.SetStatus(codes.Error, "City not found")
		return nil, fmt.Errorf("city %q: %w", cityName, api.ErrNotFound)
	}

	loc := payload.Results[0]
	if loc.Latitude == nil || loc.Longitude == nil {
		l.ErrorContext(ctx, "Geocoding result missing coordinates")
		span.SetStatus(codes.Error, "Incomplete coordinates")
		return nil, fmt.Errorf("incomplete coordinates for city %q: %w", cityName, api.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "Coordinates resolved")
	return &types.Coordinates{Latitude: *loc.Latitude, Longitude: *loc.Longitude}, nil
}
