package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	InternalKey string

	WorkerID     string
	LeaseSeconds int
	PollSeconds  int
	RetrySeconds int

	BlobPrefix string

	EnableLeaseReaper  bool
	EnableIncidentFeed bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "maestro"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	workerID := strings.TrimSpace(os.Getenv("WORKER_ID"))
	if workerID == "" {
		hostname, err := os.Hostname()
		if err == nil && hostname != "" {
			workerID = "worker-" + hostname
		} else {
			workerID = "worker-1"
		}
	}

	blobPrefix := strings.TrimSpace(os.Getenv("BLOB_PREFIX"))
	if blobPrefix == "" {
		blobPrefix = "orders"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		InternalKey: strings.TrimSpace(os.Getenv("INTERNAL_API_KEY")),

		WorkerID:     workerID,
		LeaseSeconds: envInt("WORKER_LEASE_SECONDS", 300),
		PollSeconds:  envInt("WORKER_POLL_SECONDS", 5),
		RetrySeconds: envInt("WORKER_RETRY_SECONDS", 2),

		BlobPrefix: blobPrefix,

		EnableLeaseReaper:  envBool("ENABLE_LEASE_REAPER", true),
		EnableIncidentFeed: envBool("ENABLE_INCIDENT_FEED", true),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
