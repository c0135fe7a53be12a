package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogodnik/pogodnik/config"
	"github.com/pogodnik/pogodnik/internal/api"
	"github.com/pogodnik/pogodnik/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenMeteoGeocoder_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves coordinates for a known city", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "Ekaterinburg", q.Get("name"))
			assert.Equal(t, "1", q.Get("count"))
			assert.Equal(t, "ru", q.Get("language"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"results":[{"latitude":56.8519,"longitude":60.6122}]}`))
		}))
		defer srv.Close()

		geo := NewOpenMeteoGeocoder(config.OpenMeteo{
			GeocodingURL: srv.URL,
			Language:     "ru",
			Timeout:      2 * time.Second,
		}, discardLogger())

		coords, err := geo.Resolve(ctx, "Ekaterinburg")
		require.NoError(t, err)
		assert.Equal(t, 56.8519, coords.Latitude)
		assert.Equal(t, 60.6122, coords.Longitude)
	})

	t.Run("empty result set means not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"generationtime_ms":0.5}`))
		}))
		defer srv.Close()

		geo := NewOpenMeteoGeocoder(config.OpenMeteo{GeocodingURL: srv.URL, Language: "ru"}, discardLogger())

		coords, err := geo.Resolve(ctx, "Atlantis")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.Nil(t, coords)
	})

	t.Run("result without coordinates means not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[{"name":"Nowhere"}]}`))
		}))
		defer srv.Close()

		geo := NewOpenMeteoGeocoder(config.OpenMeteo{GeocodingURL: srv.URL, Language: "ru"}, discardLogger())

		_, err := geo.Resolve(ctx, "Nowhere")
		assert.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("server error is not conflated with not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		geo := NewOpenMeteoGeocoder(config.OpenMeteo{GeocodingURL: srv.URL, Language: "ru"}, discardLogger())

		_, err := geo.Resolve(ctx, "London")
		require.Error(t, err)
		assert.NotErrorIs(t, err, api.ErrNotFound)
	})
}

func TestOpenMeteoForecast_Fetch(t *testing.T) {
	ctx := context.Background()
	coords := types.Coordinates{Latitude: 56.8519, Longitude: 60.6122}

	t.Run("fetches current conditions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "56.8519", q.Get("latitude"))
			assert.Equal(t, "60.6122", q.Get("longitude"))
			assert.Equal(t, currentFields, q.Get("current"))
			assert.Equal(t, "auto", q.Get("timezone"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"current":{
				"time":"2025-06-01T12:30",
				"temperature_2m":14.2,
				"apparent_temperature":12.8,
				"relative_humidity_2m":61,
				"wind_speed_10m":9.4,
				"precipitation":0.1,
				"surface_pressure":1012.3
			}}`))
		}))
		defer srv.Close()

		fc := NewOpenMeteoForecast(config.OpenMeteo{ForecastURL: srv.URL, Timeout: 2 * time.Second}, discardLogger())

		reading, err := fc.Fetch(ctx, coords)
		require.NoError(t, err)
		assert.Empty(t, reading.City)
		assert.Equal(t, 14.2, reading.Temperature)
		assert.Equal(t, 12.8, reading.ApparentTemperature)
		assert.Equal(t, 61.0, reading.RelativeHumidity)
		assert.Equal(t, 9.4, reading.WindSpeed)
		assert.Equal(t, 0.1, reading.Precipitation)
		assert.Equal(t, 1012.3, reading.SurfacePressure)
		assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), reading.ObservedAt)
	})

	t.Run("unparseable observation time falls back to now", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"current":{"time":"soon","temperature_2m":1}}`))
		}))
		defer srv.Close()

		fc := NewOpenMeteoForecast(config.OpenMeteo{ForecastURL: srv.URL}, discardLogger())

		before := time.Now().UTC()
		reading, err := fc.Fetch(ctx, coords)
		require.NoError(t, err)
		assert.False(t, reading.ObservedAt.Before(before))
	})

	t.Run("missing current block is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"latitude":56.85}`))
		}))
		defer srv.Close()

		fc := NewOpenMeteoForecast(config.OpenMeteo{ForecastURL: srv.URL}, discardLogger())

		reading, err := fc.Fetch(ctx, coords)
		require.Error(t, err)
		assert.Nil(t, reading)
	})

	t.Run("bad status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		fc := NewOpenMeteoForecast(config.OpenMeteo{ForecastURL: srv.URL}, discardLogger())

		_, err := fc.Fetch(ctx, coords)
		require.Error(t, err)
	})
}
