package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second
	DefaultTaskTTL         = 24 * time.Hour
	DefaultCleanupInterval = 1 * time.Hour

	// API defaults
	DefaultAPIBaseURL           = "https://webexapis.com/v1"
	DefaultSingleRequestTimeout = 60 * time.Second

	// Archive defaults
	DefaultDownloadWorkers = 15
	DefaultTimestampFormat = "2006-01-02T15:04:05"
	DefaultFileFormat      = "tgz"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
