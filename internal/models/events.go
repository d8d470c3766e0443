package models

import "time"

// ProgressEvent is one raw callback payload from the extractor. Events
// fire on the extractor's execution context; consumers must marshal them
// into task state through a channel rather than shared mutation.
type ProgressEvent struct {
	Status     string // "downloading" or "finished"
	Filename   string
	Downloaded int64
	Total      int64
	Speed      float64 // bytes per second
	ETA        time.Duration
}

// StatusFinished is the extractor status emitted when one stream
// completes.
const StatusFinished = "finished"

// RateLimitedError signals that the reply channel refused a UI edit and
// requires a quiet period before the next attempt.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limited, retry after " + e.RetryAfter.String()
}

// DownloadRecord is the history row written when a task reaches a
// terminal state.
type DownloadRecord struct {
	URL        string
	Site       string
	Title      string
	FormatID   string
	Bytes      int64
	Outcome    string
	UserID     int64
	ChatID     int64
	FinishedAt time.Time
}
