package credentials

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvAPIKey is checked before the config file.
	EnvAPIKey = "VIDEO_INSPECTOR_API_KEY"

	configDirName  = ".video-inspector"
	configFileName = "config.json"
)

// ErrNotFound indicates no API key could be resolved from any source.
var ErrNotFound = errors.New("no API key found: set " + EnvAPIKey + " or run the login command")

type configFile struct {
	APIKey string `json:"apiKey"`
}

// Resolver supplies the API key for one process invocation. The key is an
// opaque bearer token; it is resolved once and injected into every
// component that talks to the service.
type Resolver struct {
	configPath string
}

// NewResolver creates a resolver reading the default per-user config path.
func NewResolver() *Resolver {
	home, err := os.UserHomeDir()
	if err != nil {
		// Resolution falls back to the environment variable only.
		return &Resolver{}
	}
	return &Resolver{configPath: filepath.Join(home, configDirName, configFileName)}
}

// NewResolverWithPath creates a resolver reading a specific config path.
func NewResolverWithPath(configPath string) *Resolver {
	return &Resolver{configPath: configPath}
}

// Resolve returns the API key from the environment variable first, then the
// config file. A missing, unreadable or malformed config file degrades to
// ErrNotFound rather than a hard error.
func (r *Resolver) Resolve() (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}
	if r.configPath == "" {
		return "", ErrNotFound
	}

	data, err := os.ReadFile(r.configPath)
	if err != nil {
		return "", ErrNotFound
	}
	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", ErrNotFound
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return "", ErrNotFound
	}
	return key, nil
}

// Save persists the API key to the config file, creating the parent
// directory if missing. Write-only bootstrapping for the login command.
func (r *Resolver) Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is required")
	}
	if r.configPath == "" {
		return errors.New("cannot determine config path: no home directory")
	}
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(configFile{APIKey: key}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.configPath, data, 0o600)
}
