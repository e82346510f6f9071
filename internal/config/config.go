package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Alerts
	AlertCacheTTL     time.Duration `env:"ALERT_CACHE_TTL" envDefault:"5m"`
	AnalyticsCacheTTL time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"30s"`
	AllowReopen       bool          `env:"ALLOW_REOPEN" envDefault:"true"`

	// Live stream
	StreamHeartbeat time.Duration `env:"STREAM_HEARTBEAT" envDefault:"30s"`
	StreamBuffer    int           `env:"STREAM_BUFFER" envDefault:"64"`
	StreamOverflow  string        `env:"STREAM_OVERFLOW" envDefault:"drop"`

	// Detections
	DetectionMinConfidence float64  `env:"DETECTION_MIN_CONFIDENCE" envDefault:"0.5"`
	KafkaBrokers           []string `env:"KAFKA_BROKERS"`
	KafkaDetectionsTopic   string   `env:"KAFKA_DETECTIONS_TOPIC" envDefault:"camera-detections"`
	KafkaGroupID           string   `env:"KAFKA_GROUP_ID" envDefault:"civic-alerts"`

	// Air quality telemetry
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"civic-alerts"`
	MQTTAQITopic  string `env:"MQTT_AQI_TOPIC" envDefault:"sensors/aqi/#"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`
	InfluxURL     string `env:"INFLUX_URL"`
	InfluxToken   string `env:"INFLUX_TOKEN"`
	InfluxOrg     string `env:"INFLUX_ORG"`
	InfluxBucket  string `env:"INFLUX_BUCKET" envDefault:"air_quality"`

	// Image storage
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"alert-images"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`

	// Email
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"alerts@localhost"`
	AuthorityEmail string `env:"AUTHORITY_EMAIL"`

	// Generative text enhancement
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),

		AlertCacheTTL:     getEnvAsDuration("ALERT_CACHE_TTL", 5*time.Minute),
		AnalyticsCacheTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", 30*time.Second),
		AllowReopen:       getEnvAsBool("ALLOW_REOPEN", true),

		StreamHeartbeat: getEnvAsDuration("STREAM_HEARTBEAT", 30*time.Second),
		StreamBuffer:    getEnvAsInt("STREAM_BUFFER", 64),
		StreamOverflow:  getEnv("STREAM_OVERFLOW", "drop"),

		DetectionMinConfidence: getEnvAsFloat("DETECTION_MIN_CONFIDENCE", 0.5),
		KafkaBrokers:           getEnvAsList("KAFKA_BROKERS"),
		KafkaDetectionsTopic:   getEnv("KAFKA_DETECTIONS_TOPIC", "camera-detections"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "civic-alerts"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "civic-alerts"),
		MQTTAQITopic:  getEnv("MQTT_AQI_TOPIC", "sensors/aqi/#"),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
		InfluxURL:     os.Getenv("INFLUX_URL"),
		InfluxToken:   os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:     os.Getenv("INFLUX_ORG"),
		InfluxBucket:  getEnv("INFLUX_BUCKET", "air_quality"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MinioBucket:    getEnv("MINIO_BUCKET", "alert-images"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),

		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       getEnv("MAIL_FROM", "alerts@localhost"),
		AuthorityEmail: os.Getenv("AUTHORITY_EMAIL"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		APIKeys: getEnvAsList("API_KEYS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.StreamOverflow != "drop" && cfg.StreamOverflow != "close" {
		return nil, fmt.Errorf("STREAM_OVERFLOW must be 'drop' or 'close', got %q", cfg.StreamOverflow)
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список значений, разделенных запятыми
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
