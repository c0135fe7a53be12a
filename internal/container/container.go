package container

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/pogodnik/pogodnik/app/db"
	"github.com/pogodnik/pogodnik/config"
	"github.com/pogodnik/pogodnik/internal/api/city"
	"github.com/pogodnik/pogodnik/internal/api/weather"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	CityHandler    *city.Handler
	WeatherHandler *weather.Handler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// Search ledger: repository -> service -> handler
	ledgerRepo := city.NewPostgresSearchLedger(pool, logger)
	cityService := city.NewCityService(ledgerRepo, logger)
	cityHandler := city.NewCityHandler(cityService, logger)

	// Weather pipeline: geocoding -> forecast, plus the ledger for searches
	geocoder := weather.NewOpenMeteoGeocoder(cfg.OpenMeteo, logger)
	forecast := weather.NewOpenMeteoForecast(cfg.OpenMeteo, logger)
	weatherService := weather.NewWeatherService(geocoder, forecast, logger)
	weatherHandler := weather.NewWeatherHandler(weatherService, cityService, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		CityHandler:    cityHandler,
		WeatherHandler: weatherHandler,
	}, nil
}

// Close releases resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
