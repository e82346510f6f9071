package telemetry

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/shenikar/civic_alerts/internal/models"
)

const measurement = "air_quality"

// Sink получает каждое принятое показание
type Sink interface {
	Write(ctx context.Context, r models.AirQualityReading) error
}

// InfluxWriter пишет показания в InfluxDB синхронно
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxWriter(url, token, org, bucket string) *InfluxWriter {
	client := influxdb2.NewClient(url, token)
	return &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

func (w *InfluxWriter) Write(ctx context.Context, r models.AirQualityReading) error {
	return w.writeAPI.WritePoint(ctx, buildPoint(r))
}

func (w *InfluxWriter) Close() {
	if w != nil && w.client != nil {
		w.client.Close()
	}
}

func buildPoint(r models.AirQualityReading) *write.Point {
	tags := map[string]string{
		"sensor_id": r.SensorID,
		"category":  r.Category,
	}
	if r.Location != "" {
		tags["location"] = r.Location
	}

	fields := map[string]interface{}{
		"pm25": r.PM25,
		"pm10": r.PM10,
		"aqi":  int64(r.AQI),
	}
	if r.CO2 != 0 {
		fields["co2"] = r.CO2
	}
	if r.Temperature != 0 {
		fields["temperature"] = r.Temperature
	}
	if r.Humidity != 0 {
		fields["humidity"] = r.Humidity
	}

	return write.NewPoint(measurement, tags, fields, r.RecordedAt)
}
