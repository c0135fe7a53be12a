package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pogodnik/pogodnik/internal/api"
	"github.com/pogodnik/pogodnik/internal/types"
)

var _ GeoResolver = (*MockGeoResolver)(nil)

type MockGeoResolver struct {
	mock.Mock
}

func (m *MockGeoResolver) Resolve(ctx context.Context, cityName string) (*types.Coordinates, error) {
	args := m.Called(ctx, cityName)
	coords, _ := args.Get(0).(*types.Coordinates)
	return coords, args.Error(1)
}

var _ WeatherFetcher = (*MockWeatherFetcher)(nil)

type MockWeatherFetcher struct {
	mock.Mock
}

func (m *MockWeatherFetcher) Fetch(ctx context.Context, coords types.Coordinates) (*types.WeatherReading, error) {
	args := m.Called(ctx, coords)
	reading, _ := args.Get(0).(*types.WeatherReading)
	return reading, args.Error(1)
}

func setupWeatherServiceTest(t *testing.T) (*ServiceImpl, *MockGeoResolver, *MockWeatherFetcher) {
	t.Helper()
	resolver := new(MockGeoResolver)
	fetcher := new(MockWeatherFetcher)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWeatherService(resolver, fetcher, logger), resolver, fetcher
}

func TestWeatherService_GetWeather(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps the requested city onto the reading", func(t *testing.T) {
		svc, resolver, fetcher := setupWeatherServiceTest(t)
		coords := types.Coordinates{Latitude: 56.8519, Longitude: 60.6122}
		observed := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

		resolver.On("Resolve", ctx, "Ekaterinburg").Return(&coords, nil).Once()
		fetcher.On("Fetch", ctx, coords).Return(&types.WeatherReading{
			Temperature:      14.2,
			RelativeHumidity: 61,
			ObservedAt:       observed,
		}, nil).Once()

		reading, err := svc.GetWeather(ctx, "Ekaterinburg")
		require.NoError(t, err)
		assert.Equal(t, "Ekaterinburg", reading.City)
		assert.Equal(t, 14.2, reading.Temperature)
		assert.Equal(t, observed, reading.ObservedAt)
		resolver.AssertExpectations(t)
		fetcher.AssertExpectations(t)
	})

	t.Run("unknown city skips the forecast stage", func(t *testing.T) {
		svc, resolver, fetcher := setupWeatherServiceTest(t)

		resolver.On("Resolve", ctx, "Atlantis").
			Return(nil, errors.New("city \"Atlantis\" not found")).Once()

		reading, err := svc.GetWeather(ctx, "Atlantis")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.Nil(t, reading)
		fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		resolver.AssertExpectations(t)
	})

	t.Run("geocoder not-found passes through unchanged", func(t *testing.T) {
		svc, resolver, fetcher := setupWeatherServiceTest(t)
		notFound := fmt.Errorf("city %q: %w", "Atlantis", api.ErrNotFound)

		resolver.On("Resolve", ctx, "Atlantis").Return(nil, notFound).Once()

		_, err := svc.GetWeather(ctx, "Atlantis")
		assert.ErrorIs(t, err, api.ErrNotFound)
		fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})

	t.Run("forecast failure surfaces as not found", func(t *testing.T) {
		svc, resolver, fetcher := setupWeatherServiceTest(t)
		coords := types.Coordinates{Latitude: 51.5074, Longitude: -0.1278}

		resolver.On("Resolve", ctx, "London").Return(&coords, nil).Once()
		fetcher.On("Fetch", ctx, coords).
			Return(nil, errors.New("forecast returned status 503")).Once()

		reading, err := svc.GetWeather(ctx, "London")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.Nil(t, reading)
		resolver.AssertExpectations(t)
		fetcher.AssertExpectations(t)
	})
}
