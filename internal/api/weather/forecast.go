package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pogodnik/pogodnik/app/observability/metrics"
	"github.com/pogodnik/pogodnik/config"
	"github.com/pogodnik/pogodnik/internal/types"
)

var _ WeatherFetcher = (*OpenMeteoForecast)(nil)

// WeatherFetcher maps coordinates to a current-conditions reading.
// The reading's City field is left blank; only the caller knows the name.
type WeatherFetcher interface {
	Fetch(ctx context.Context, coords types.Coordinates) (*types.WeatherReading, error)
}

// currentFields is the fixed set of current-condition fields requested from
// the forecast endpoint.
var currentFields = strings.Join([]string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"wind_speed_10m",
	"precipitation",
	"surface_pressure",
}, ",")

// Open-Meteo reports observation times at minute precision in the location's
// own timezone.
const observedAtLayout = "2006-01-02T15:04"

// OpenMeteoForecast fetches current conditions from the Open-Meteo forecast API.
type OpenMeteoForecast struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
}

func NewOpenMeteoForecast(cfg config.OpenMeteo, logger *slog.Logger) *OpenMeteoForecast {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &OpenMeteoForecast{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.ForecastURL,
	}
}

func (f *OpenMeteoForecast) Fetch(ctx context.Context, coords types.Coordinates) (*types.WeatherReading, error) {
	ctx, span := otel.Tracer("WeatherFetcher").Start(ctx, "Fetch", trace.WithAttributes(
		attribute.Float64("coords.latitude", coords.Latitude),
		attribute.Float64("coords.longitude", coords.Longitude),
	))
	defer span.End()

	l := f.logger.With(slog.String("method", "Fetch"))
	l.DebugContext(ctx, "Requesting current conditions",
		slog.Float64("latitude", coords.Latitude),
		slog.Float64("longitude", coords.Longitude),
	)

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", f.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if m := metrics.Get(); m != nil {
		m.ForecastDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		l.ErrorContext(ctx, "Forecast request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast request failed")
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.ErrorContext(ctx, "Forecast returned bad status", slog.Int("status", resp.StatusCode))
		span.SetStatus(codes.Error, "Forecast returned bad status")
		return nil, fmt.Errorf("forecast returned status %d", resp.StatusCode)
	}

	var payload struct {
		Current *struct {
			Time                string  `json:"time"`
			Temperature         float64 `json:"temperature_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			RelativeHumidity    float64 `json:"relative_humidity_2m"`
			WindSpeed           float64 `json:"wind_speed_10m"`
			Precipitation       float64 `json:"precipitation"`
			SurfacePressure     float64 `json:"surface_pressure"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		l.ErrorContext(ctx, "Failed to decode forecast response", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to decode forecast response")
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	if payload.Current == nil {
		l.ErrorContext(ctx, "Forecast response has no current conditions")
		span.SetStatus(codes.Error, "No current conditions")
		return nil, fmt.Errorf("forecast response has no current conditions")
	}

	observedAt, err := time.Parse(observedAtLayout, payload.Current.Time)
	if err != nil {
		observedAt = time.Now().UTC()
	}

	span.SetStatus(codes.Ok, "Current conditions fetched")
	return &types.WeatherReading{
		Temperature:         payload.Current.Temperature,
		ApparentTemperature: payload.Current.ApparentTemperature,
		RelativeHumidity:    payload.Current.RelativeHumidity,
		WindSpeed:           payload.Current.WindSpeed,
		Precipitation:       payload.Current.Precipitation,
		SurfacePressure:     payload.Current.SurfacePressure,
		ObservedAt:          observedAt,
	}, nil
}
