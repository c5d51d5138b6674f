// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting used by the api, worker and CLI binaries.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8000"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	APIToken    string `envconfig:"API_TOKEN"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"5"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Role selects which settings Validate requires.
type Role string

const (
	RoleAPI    Role = "api"
	RoleWorker Role = "worker"
)

// Load reads envPath (if it exists) into the environment, then parses the
// environment. Variables already set win over the file.
func Load(envPath string) (Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}

// Validate reports the settings missing for role.
func (c Config) Validate(role Role) error {
	var missing []string
	req := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	req("DATABASE_URL", c.DatabaseURL)
	req("REDIS_ADDR", c.RedisAddr)
	req("MINIO_ENDPOINT", c.MinioEndpoint)
	req("MINIO_BUCKET", c.MinioBucket)
	if role == RoleAPI {
		req("API_TOKEN", c.APIToken)
	}
	if c.WorkerConcurrency < 1 {
		missing = append(missing, "WORKER_CONCURRENCY (must be >= 1)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s config: missing %s", role, strings.Join(missing, ", "))
	}
	return nil
}
