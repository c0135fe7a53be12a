package weather

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/pogodnik/pogodnik/internal/api"
	"github.com/pogodnik/pogodnik/internal/api/city"
	"github.com/pogodnik/pogodnik/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	weather Service
	cities  city.Service
}

func NewWeatherHandler(weather Service, cities city.Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		weather: weather,
		cities:  cities,
	}
}

// GetWeather handles GET /weather?city=<raw name>. The raw input is
// normalized once; the ledger write and the weather fetch both consume the
// normalized name and run concurrently. The ledger write is best-effort: a
// failure there is logged but never keeps the weather response from
// rendering, and a failed weather lookup does not undo the ledger write.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetWeather")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetWeather"))

	name, err := city.Normalize(r.URL.Query().Get("city"))
	if err != nil {
		l.WarnContext(ctx, "Invalid city name", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid city name")
		api.ErrorResponse(w, r, http.StatusBadRequest,
			"Invalid city name. Use at least two letters, spaces, hyphens or apostrophes.")
		return
	}

	var reading *types.WeatherReading
	var g errgroup.Group
	g.Go(func() error {
		var err error
		reading, err = h.weather.GetWeather(ctx, name)
		return err
	})
	g.Go(func() error {
		if err := h.cities.RecordSearch(ctx, name); err != nil {
			l.ErrorContext(ctx, "Failed to record search", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrNotFound) {
			l.InfoContext(ctx, "Weather not found", slog.String("city", name))
			span.SetStatus(codes.Error, "Weather not found")
			api.ErrorResponse(w, r, http.StatusNotFound,
				fmt.Sprintf("Could not get weather for %q.", name))
			return
		}
		l.ErrorContext(ctx, "Failed to get weather", slog.Any("error", err))
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to get weather")
		return
	}

	l.InfoContext(ctx, "Weather returned", slog.String("city", name))
	span.SetStatus(codes.Ok, "Weather returned")
	api.WriteJSONResponse(w, r, http.StatusOK, reading)
}
