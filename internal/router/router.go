package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pogodnik/pogodnik/internal/api/city"
	"github.com/pogodnik/pogodnik/internal/api/weather"
)

// Config contains dependencies needed for the router setup
type Config struct {
	WeatherHandler *weather.Handler
	CityHandler    *city.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/weather", cfg.WeatherHandler.GetWeather)
		r.Get("/cities/autocomplete", cfg.CityHandler.Autocomplete)
		r.Get("/stats", cfg.CityHandler.Statistics)
	})

	return r
}
