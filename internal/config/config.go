package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// UploadBackend selects how validated videos reach the object store.
type UploadBackend string

const (
	// UploadBackendHTTP streams bytes to a presigned URL issued by the API.
	UploadBackendHTTP UploadBackend = "http"
	// UploadBackendAzure writes directly to an Azure storage account, for
	// self-hosted deployments where the service reads the same account.
	UploadBackendAzure UploadBackend = "azure"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	PollInterval          time.Duration
	PollMaxAttempts       int
	ProgressEveryAttempts int

	MaxVideoSizeBytes int64

	UploadBackend        UploadBackend
	AzureAccountName     string
	AzureAccountKey      string
	AzureUploadContainer string

	HTTPHost string
	HTTPPort string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.HTTPHost)
	port := strings.TrimSpace(c.HTTPPort)
	return net.JoinHostPort(host, port)
}

// StatusCheckURL returns the manual status URL surfaced in timeout and
// lost-connection diagnoses so users can follow up on a job themselves.
func (c *Config) StatusCheckURL(jobID string) string {
	return fmt.Sprintf("%s/analyze/jobs/%s/status", strings.TrimRight(c.APIBaseURL, "/"), jobID)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		APIBaseURL:            getEnvOrDefault("VIDEO_INSPECTOR_API_URL", "https://api.video-inspector.dev"),
		RequestTimeout:        parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		UploadTimeout:         parseDurationOrDefault("UPLOAD_TIMEOUT", 10*time.Minute),
		PollInterval:          parseDurationOrDefault("POLL_INTERVAL", 5*time.Second),
		PollMaxAttempts:       int(parseIntOrDefault("POLL_MAX_ATTEMPTS", 120)),
		ProgressEveryAttempts: int(parseIntOrDefault("POLL_PROGRESS_EVERY", 6)),
		MaxVideoSizeBytes:     parseIntOrDefault("MAX_VIDEO_SIZE_BYTES", 524288000), // 500 MiB
		UploadBackend:         UploadBackend(getEnvOrDefault("UPLOAD_BACKEND", string(UploadBackendHTTP))),
		AzureAccountName:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureUploadContainer:  getEnvOrDefault("AZURE_UPLOAD_CONTAINER", "video-uploads"),
		HTTPHost:              getEnvOrDefault("HOST", "127.0.0.1"),
		HTTPPort:              getEnvOrDefault("PORT", "8099"),
	}

	parsed, err := url.Parse(strings.TrimSpace(cfg.APIBaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid VIDEO_INSPECTOR_API_URL: %q", cfg.APIBaseURL)
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.HTTPPort))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.HTTPPort)
	}
	if cfg.MaxVideoSizeBytes <= 0 {
		return nil, fmt.Errorf("MAX_VIDEO_SIZE_BYTES must be > 0 (got %d)", cfg.MaxVideoSizeBytes)
	}
	if cfg.RequestTimeout <= 0 || cfg.UploadTimeout <= 0 || cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, upload=%s, poll=%s)",
			cfg.RequestTimeout, cfg.UploadTimeout, cfg.PollInterval)
	}
	if cfg.PollMaxAttempts < 1 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be >= 1 (got %d)", cfg.PollMaxAttempts)
	}
	if cfg.ProgressEveryAttempts < 1 {
		return nil, fmt.Errorf("POLL_PROGRESS_EVERY must be >= 1 (got %d)", cfg.ProgressEveryAttempts)
	}
	switch cfg.UploadBackend {
	case UploadBackendHTTP:
	case UploadBackendAzure:
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("UPLOAD_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid UPLOAD_BACKEND: %q", cfg.UploadBackend)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
