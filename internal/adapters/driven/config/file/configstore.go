package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/windward-data/sailtap/internal/core/domain"
)

// fileConfig mirrors the TOML layout of the config file. Durations are
// written in seconds.
type fileConfig struct {
	DataDir string `toml:"data_dir,omitempty"`

	Account struct {
		APIKey    string `toml:"api_key,omitempty"`
		APISecret string `toml:"api_secret,omitempty"`
		Name      string `toml:"name,omitempty"`
		UserAgent string `toml:"user_agent,omitempty"`
	} `toml:"account"`

	API struct {
		BaseURL               string  `toml:"base_url,omitempty"`
		RequestTimeoutSeconds int     `toml:"request_timeout_seconds,omitempty"`
		RateLimit             float64 `toml:"rate_limit,omitempty"`
		Burst                 int     `toml:"burst,omitempty"`
	} `toml:"api"`

	Jobs struct {
		PollIntervalSeconds int `toml:"poll_interval_seconds,omitempty"`
		TimeoutSeconds      int `toml:"timeout_seconds,omitempty"`
	} `toml:"jobs"`

	Export struct {
		ChunkSize int `toml:"chunk_size,omitempty"`
	} `toml:"export"`

	Sync struct {
		StartDate           string   `toml:"start_date,omitempty"`
		CheckpointFrequency int      `toml:"checkpoint_frequency,omitempty"`
		RecordLimit         int      `toml:"record_limit,omitempty"`
		Streams             []string `toml:"streams,omitempty"`
	} `toml:"sync"`
}

// Loader reads extractor settings from a TOML file, layering them over
// the defaults and under any environment overrides.
type Loader struct {
	path string
}

// NewLoader creates a settings loader for the given config file path.
// If path is empty, defaults to ~/.sailtap/config.toml.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".sailtap", "config.toml")
	}
	return &Loader{path: path}, nil
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the config file and returns the resulting settings. A
// missing file is not an error: defaults plus environment overrides
// apply. Validation is the caller's concern.
func (l *Loader) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fall through to environment overrides.
	case err != nil:
		return settings, fmt.Errorf("reading config %s: %w", l.path, err)
	default:
		var cfg fileConfig
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return settings, fmt.Errorf("parsing config %s: %w", l.path, err)
		}
		applyFileConfig(&settings, cfg)
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

// WriteTemplate writes a config file populated with the defaults,
// creating parent directories as needed. Fails if the file exists.
func (l *Loader) WriteTemplate() error {
	if _, err := os.Stat(l.path); err == nil {
		return fmt.Errorf("config %s already exists", l.path)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaults := domain.DefaultSettings()
	var cfg fileConfig
	cfg.API.BaseURL = defaults.API.BaseURL
	cfg.API.RequestTimeoutSeconds = int(defaults.API.RequestTimeout / time.Second)
	cfg.API.RateLimit = defaults.API.RateLimit
	cfg.API.Burst = defaults.API.Burst
	cfg.Jobs.PollIntervalSeconds = int(defaults.Jobs.PollInterval / time.Second)
	cfg.Jobs.TimeoutSeconds = int(defaults.Jobs.Timeout / time.Second)
	cfg.Export.ChunkSize = defaults.Export.ChunkSize
	cfg.Sync.CheckpointFrequency = defaults.Sync.CheckpointFrequency

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config template: %w", err)
	}

	// Restricted permissions: the file will hold credentials.
	return os.WriteFile(l.path, data, 0600)
}

// applyFileConfig layers non-zero file values over the defaults.
func applyFileConfig(settings *domain.Settings, cfg fileConfig) {
	if cfg.DataDir != "" {
		settings.DataDir = cfg.DataDir
	}

	if cfg.Account.APIKey != "" {
		settings.Account.APIKey = cfg.Account.APIKey
	}
	if cfg.Account.APISecret != "" {
		settings.Account.APISecret = cfg.Account.APISecret
	}
	if cfg.Account.Name != "" {
		settings.Account.AccountName = cfg.Account.Name
	}
	if cfg.Account.UserAgent != "" {
		settings.Account.UserAgent = cfg.Account.UserAgent
	}

	if cfg.API.BaseURL != "" {
		settings.API.BaseURL = cfg.API.BaseURL
	}
	if cfg.API.RequestTimeoutSeconds > 0 {
		settings.API.RequestTimeout = time.Duration(cfg.API.RequestTimeoutSeconds) * time.Second
	}
	if cfg.API.RateLimit != 0 {
		settings.API.RateLimit = cfg.API.RateLimit
	}
	if cfg.API.Burst > 0 {
		settings.API.Burst = cfg.API.Burst
	}

	if cfg.Jobs.PollIntervalSeconds > 0 {
		settings.Jobs.PollInterval = time.Duration(cfg.Jobs.PollIntervalSeconds) * time.Second
	}
	if cfg.Jobs.TimeoutSeconds > 0 {
		settings.Jobs.Timeout = time.Duration(cfg.Jobs.TimeoutSeconds) * time.Second
	}

	if cfg.Export.ChunkSize > 0 {
		settings.Export.ChunkSize = cfg.Export.ChunkSize
	}

	if cfg.Sync.StartDate != "" {
		settings.Sync.StartDate = cfg.Sync.StartDate
	}
	if cfg.Sync.CheckpointFrequency > 0 {
		settings.Sync.CheckpointFrequency = cfg.Sync.CheckpointFrequency
	}
	if cfg.Sync.RecordLimit > 0 {
		settings.Sync.RecordLimit = cfg.Sync.RecordLimit
	}
	if len(cfg.Sync.Streams) > 0 {
		settings.Sync.Streams = cfg.Sync.Streams
	}
}

// applyEnvOverrides lets credentials come from the environment so the
// config file can stay out of secrets management.
func applyEnvOverrides(settings *domain.Settings) {
	if v := os.Getenv("SAILTAP_API_KEY"); v != "" {
		settings.Account.APIKey = v
	}
	if v := os.Getenv("SAILTAP_API_SECRET"); v != "" {
		settings.Account.APISecret = v
	}
	if v := os.Getenv("SAILTAP_ACCOUNT_NAME"); v != "" {
		settings.Account.AccountName = v
	}
	if v := os.Getenv("SAILTAP_START_DATE"); v != "" {
		settings.Sync.StartDate = v
	}
}
