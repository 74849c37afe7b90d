package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Prediction services. Each domain resolves to PredictorBaseURL + "/predict/<domain>"
	// unless an explicit per-domain URL is configured.
	PredictorBaseURL   string
	PredictorURLs      map[string]string
	PredictionTimeout  time.Duration
	ScoringPause       time.Duration
	PredictorTokenURL  string
	PredictorClientID  string
	PredictorClientSec string

	// OCR collaborator
	RecognizerBaseURL string
	RecognizerTimeout time.Duration

	// Extraction rules (empty = built-in defaults)
	ExtractionRulesPath string

	// Redis (predictor health cache)
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	HealthCacheTTL time.Duration

	// Kafka (completion telemetry)
	EventsEnabled bool
	KafkaBrokers  []string
	KafkaTopic    string

	// Session registry
	SessionTTL time.Duration
}

func Load() *Config {
	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 8*1024*1024)),

		PredictorBaseURL:   getEnv("PREDICTOR_BASE_URL", "http://localhost:5000"),
		PredictionTimeout:  getDuration("PREDICTION_TIMEOUT", 8*time.Second),
		ScoringPause:       getDuration("SCORING_PAUSE", 0),
		PredictorTokenURL:  getEnv("PREDICTOR_OAUTH_TOKEN_URL", ""),
		PredictorClientID:  getEnv("PREDICTOR_OAUTH_CLIENT_ID", ""),
		PredictorClientSec: getEnv("PREDICTOR_OAUTH_CLIENT_SECRET", ""),

		RecognizerBaseURL: getEnv("RECOGNIZER_BASE_URL", "http://localhost:8091"),
		RecognizerTimeout: getDuration("RECOGNIZER_TIMEOUT", 45*time.Second),

		ExtractionRulesPath: getEnv("EXTRACTION_RULES_PATH", ""),

		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		HealthCacheTTL: getDuration("PREDICTOR_HEALTH_CACHE_TTL", 30*time.Second),

		EventsEnabled: getBoolEnv("KAFKA_ENABLED", false),
		KafkaBrokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "earlyguard.assessments"),

		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour),
	}

	cfg.PredictorURLs = map[string]string{}
	for _, domain := range []string{"metabolic", "cardiac", "hepatic", "mental"} {
		key := fmt.Sprintf("PREDICTOR_%s_URL", strings.ToUpper(domain))
		url := getEnv(key, fmt.Sprintf("%s/predict/%s", cfg.PredictorBaseURL, domain))
		cfg.PredictorURLs[domain] = url
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
