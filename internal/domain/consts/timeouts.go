package consts

import "time"

// Network timeouts
const (
	ResolveTimeout  = 90 * time.Second
	DatabaseTimeout = 5 * time.Second
	SubtitleTimeout = 2 * time.Minute
)

// Retry configuration
const (
	DefaultMaxRetries = 3
	RetryBaseDelay    = 2 * time.Second
	RetryMaxDelay     = 30 * time.Second
)

// Progress reporting
const (
	DownloadUpdateInterval = 7 * time.Second
	UploadUpdateInterval   = 5 * time.Second
	UpdateByteDelta        = 3 * 1024 * 1024
	CooldownBackoffBase    = 2 * time.Second
	CooldownBackoffCap     = 60 * time.Second
)

// File operations
const (
	FileCheckInterval = 100 * time.Millisecond
	FileWaitTimeout   = 10 * time.Second
)

// Limits
const (
	// DefaultMaxUploadBytes is the Bot API cap for regular bots.
	DefaultMaxUploadBytes = 2000 * 1024 * 1024

	MaxDisplayedFormats = 20
)
