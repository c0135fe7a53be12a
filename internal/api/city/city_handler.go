package city

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/pogodnik/pogodnik/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCityHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Autocomplete handles GET /cities/autocomplete?prefix=..&limit=..
// Prefixes shorter than two runes get an empty list; the ledger itself only
// refuses zero-length prefixes, the two-rune minimum lives here at the edge.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Autocomplete")
	defer span.End()

	l := h.logger.With(slog.String("method", "Autocomplete"))

	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	if utf8.RuneCountInString(prefix) < 2 {
		api.WriteJSONResponse(w, r, http.StatusOK, []string{})
		return
	}

	limit := DefaultAutocompleteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			l.WarnContext(ctx, "Invalid limit parameter", slog.String("limit", raw))
			span.SetStatus(codes.Error, "Invalid limit parameter")
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	names, err := h.service.Autocomplete(ctx, prefix, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch autocomplete suggestions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch suggestions")
		return
	}
	if names == nil {
		names = []string{}
	}

	span.SetStatus(codes.Ok, "Suggestions returned")
	api.WriteJSONResponse(w, r, http.StatusOK, names)
}

// Statistics handles GET /stats - returns the visit counter for every city
// that has ever been searched.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Statistics")
	defer span.End()

	l := h.logger.With(slog.String("method", "Statistics"))

	stats, err := h.service.Statistics(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch search statistics", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}

	l.InfoContext(ctx, "Statistics returned", slog.Int("count", len(stats)))
	span.SetStatus(codes.Ok, "Statistics returned")
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}
