package types

import "time"

// Coordinates is the transient latitude/longitude pair produced by the
// geocoding lookup and consumed by the forecast lookup. Never persisted.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherReading is a transient current-conditions snapshot for one city.
// Produced fresh on every request; not cached, not stored. City echoes the
// name the caller asked for and is stamped by the pipeline, not the fetcher.
type WeatherReading struct {
	City                string    `json:"city"`
	Temperature         float64   `json:"temperature_2m"`
	ApparentTemperature float64   `json:"apparent_temperature"`
	RelativeHumidity    float64   `json:"relative_humidity_2m"`
	WindSpeed           float64   `json:"wind_speed_10m"`
	Precipitation       float64   `json:"precipitation"`
	SurfacePressure     float64   `json:"surface_pressure"`
	ObservedAt          time.Time `json:"time"`
}
