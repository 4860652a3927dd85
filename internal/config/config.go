package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr      string
	DatabasePath    string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	DigestScheme string
	BcryptCost   int

	MetricsEnabled bool

	// Kafka publishing is off when KafkaBrokers is empty.
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaWriteTimeout time.Duration
}

// Load reads .env (if present), the environment, and an optional config.yaml
// in . or ./config. Environment wins over the file. Missing files are fine;
// files that exist but do not parse are an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("DATABASE_PATH", "./data/blog.db")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DIGEST_SCHEME", "sha256")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "blog-activity")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "10s")

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		ServerAddr:        v.GetString("SERVER_ADDR"),
		DatabasePath:      v.GetString("DATABASE_PATH"),
		ShutdownTimeout:   parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		DigestScheme:      strings.ToLower(v.GetString("DIGEST_SCHEME")),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
		MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		KafkaWriteTimeout: parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 10*time.Second),
	}, nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
