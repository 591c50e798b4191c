package domain

import (
	"fmt"
	"time"
)

// AccountSettings holds platform credentials.
type AccountSettings struct {
	// APIKey identifies the account.
	APIKey string

	// APISecret signs every request.
	APISecret string

	// AccountName labels records with the account they came from.
	AccountName string

	// UserAgent is sent with every request.
	UserAgent string
}

// IsConfigured returns true if the account credentials are set.
func (a AccountSettings) IsConfigured() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// APISettings holds transport configuration for the platform API.
type APISettings struct {
	// BaseURL is the API endpoint.
	BaseURL string

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration

	// RateLimit is the sustained request rate in requests per second.
	// Zero disables client-side throttling.
	RateLimit float64

	// Burst is the momentary request budget above the sustained rate.
	Burst int
}

// JobSettings holds export job polling configuration.
type JobSettings struct {
	// PollInterval is the delay between status polls.
	PollInterval time.Duration

	// Timeout is the wall-clock budget for a job to complete.
	Timeout time.Duration
}

// ExportSettings holds export file decoding configuration.
type ExportSettings struct {
	// ChunkSize is the streaming read buffer size in bytes.
	ChunkSize int
}

// SyncSettings holds replication behaviour configuration.
type SyncSettings struct {
	// StartDate is the initial replication floor for streams with no
	// bookmark yet, in RFC 3339 or date-only form.
	StartDate string

	// CheckpointFrequency is how many records pass between interim
	// state checkpoints.
	CheckpointFrequency int

	// RecordLimit caps total records across the whole run. Zero means
	// no limit.
	RecordLimit int

	// Streams restricts the run to the named streams and their
	// ancestors. Empty selects everything.
	Streams []string
}

// Settings holds all extractor settings.
type Settings struct {
	// Account holds platform credentials.
	Account AccountSettings

	// API holds transport configuration.
	API APISettings

	// Jobs holds export job polling configuration.
	Jobs JobSettings

	// Export holds export file decoding configuration.
	Export ExportSettings

	// Sync holds replication behaviour configuration.
	Sync SyncSettings

	// DataDir is where local checkpoint data lives. Empty uses the
	// default under the user's home directory.
	DataDir string
}

// DefaultSettings returns settings with sensible defaults.
// Credentials are left unconfigured and must be supplied via the
// config file or environment.
func DefaultSettings() Settings {
	return Settings{
		Account: AccountSettings{},
		API: APISettings{
			BaseURL:        "https://api.sailthru.com",
			RequestTimeout: 300 * time.Second,
			RateLimit:      2,
			Burst:          1,
		},
		Jobs: JobSettings{
			PollInterval: time.Second,
			Timeout:      600 * time.Second,
		},
		Export: ExportSettings{
			ChunkSize: 1024,
		},
		Sync: SyncSettings{
			CheckpointFrequency: 10000,
			RecordLimit:         0,
		},
	}
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if !s.Account.IsConfigured() {
		return fmt.Errorf("%w: api key and secret are required", ErrInvalidSettings)
	}
	if s.API.BaseURL == "" {
		return fmt.Errorf("%w: api base url is required", ErrInvalidSettings)
	}
	if s.API.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit cannot be negative", ErrInvalidSettings)
	}
	if s.Jobs.PollInterval <= 0 {
		return fmt.Errorf("%w: job poll interval must be positive", ErrInvalidSettings)
	}
	if s.Jobs.Timeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidSettings)
	}
	if s.Export.ChunkSize <= 0 {
		return fmt.Errorf("%w: export chunk size must be positive", ErrInvalidSettings)
	}
	if s.Sync.CheckpointFrequency <= 0 {
		return fmt.Errorf("%w: checkpoint frequency must be positive", ErrInvalidSettings)
	}
	if s.Sync.RecordLimit < 0 {
		return fmt.Errorf("%w: record limit cannot be negative", ErrInvalidSettings)
	}
	if s.Sync.StartDate != "" {
		if _, err := ParseTime(s.Sync.StartDate); err != nil {
			return fmt.Errorf("%w: start date: %v", ErrInvalidSettings, err)
		}
	}
	return nil
}
