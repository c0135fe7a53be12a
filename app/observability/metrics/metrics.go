package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchesTotal           metric.Int64Counter
	GeocodeDurationSeconds  metric.Float64Histogram
	ForecastDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("pogodnik")
		var err error
		m := &AppMetrics{}

		m.SearchesTotal, err = meter.Int64Counter(
			"city_searches_total",
			metric.WithDescription("Total number of city searches recorded in the ledger"),
			metric.WithUnit("{search}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create city_searches_total: %v", err)
		}

		m.GeocodeDurationSeconds, err = meter.Float64Histogram(
			"geocode_duration_seconds",
			metric.WithDescription("Duration of outbound geocoding lookups in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_duration_seconds: %v", err)
		}

		m.ForecastDurationSeconds, err = meter.Float64Histogram(
			"forecast_duration_seconds",
			metric.WithDescription("Duration of outbound forecast lookups in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create forecast_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, or nil when
// InitAppMetrics was never called (tests run without instruments).
func Get() *AppMetrics {
	return appMetrics
}
