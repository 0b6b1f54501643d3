package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "haulcheck/pkg/platform/strings"
)

// Config captures server and engine configuration. Values come from the
// environment so main stays lean.
type Config struct {
	Addr string

	// Approval aggregate persistence. Postgres wins over Redis when both are
	// set; with neither the in-memory store is used.
	PostgresDSN string
	RedisURL    string

	// Kafka status-change events. Empty brokers disable publishing.
	KafkaBrokers []string
	KafkaTopic   string

	// External identity verifier.
	VerifierBaseURL string
	VerifierAPIKey  string

	// Per-signal timeout for extractor/verifier calls. Exceeding it is folded
	// into success=false, not an error.
	SignalTimeout time.Duration

	// Bounded fan-out for batch verification.
	BatchWorkers int

	// Languages handed to tesseract for document OCR.
	OCRLanguages []string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("HAULCHECK_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("HAULCHECK_POSTGRES_DSN"),
		RedisURL:        os.Getenv("HAULCHECK_REDIS_URL"),
		KafkaTopic:      envOr("HAULCHECK_KAFKA_TOPIC", "approval.status"),
		VerifierBaseURL: os.Getenv("HAULCHECK_VERIFIER_URL"),
		VerifierAPIKey:  os.Getenv("HAULCHECK_VERIFIER_API_KEY"),
		SignalTimeout:   envDuration("HAULCHECK_SIGNAL_TIMEOUT", 10*time.Second),
		BatchWorkers:    envInt("HAULCHECK_BATCH_WORKERS", 4),
	}
	if brokers := os.Getenv("HAULCHECK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.OCRLanguages = splitList(envOr("HAULCHECK_OCR_LANGUAGES", "eng"))
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	return platformstrings.DedupeAndTrim(strings.Split(s, ","))
}
