package models

import "time"

// AirQualityReading представляет показание датчика качества воздуха
type AirQualityReading struct {
	SensorID    string    `json:"sensor_id"`
	Location    string    `json:"location,omitempty"`
	PM25        float64   `json:"pm25"`
	PM10        float64   `json:"pm10"`
	CO2         float64   `json:"co2,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Humidity    float64   `json:"humidity,omitempty"`
	AQI         int       `json:"aqi"`
	Category    string    `json:"category"`
	RecordedAt  time.Time `json:"recorded_at"`
}
