package models

import (
	"strconv"

	"github.com/google/uuid"
)

// Stage is the current phase of an adaptive video download.
type Stage int

const (
	StageVideo Stage = iota
	StageAudio
	StageMerging
)

// String returns the user-facing stage label.
func (s Stage) String() string {
	switch s {
	case StageVideo:
		return "video"
	case StageAudio:
		return "audio"
	case StageMerging:
		return "merging"
	}
	return "downloading"
}

// DownloadTask is one in-flight acquisition, owned by the orchestrator
// for its duration.
type DownloadTask struct {
	ID uuid.UUID

	UserID          int64
	ChatID          int64
	StatusMessageID int

	Source MediaSource
	Option FormatOption

	// Dir is the user's staging directory.
	Dir string
}

// Describe returns a short human description for "already downloading"
// style messages.
func (t *DownloadTask) Describe() string {
	label := t.Option.Resolution
	if t.Option.Kind == KindAudio {
		label = strconv.Itoa(t.Option.Bitrate) + "kbps"
	}
	return t.Source.Title + " (" + label + ")"
}
