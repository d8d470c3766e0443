// Package models holds shared data structures.
package models

import "time"

// FormatKind distinguishes selectable encoding types.
type FormatKind int

const (
	KindVideo FormatKind = iota
	KindAudio
)

// StreamType distinguishes single-stream encodings from split ones.
type StreamType int

const (
	// StreamProgressive is a single stream carrying both video and audio.
	StreamProgressive StreamType = iota
	// StreamAdaptive is a video-only stream requiring an audio merge.
	StreamAdaptive
)

// RawFormat is one encoding entry as reported by the extractor, before
// deduplication.
type RawFormat struct {
	ID             string
	Ext            string
	VCodec         string
	ACodec         string
	Height         int
	ABR            float64 // audio bitrate, kbps
	Filesize       int64
	FilesizeApprox int64
}

// Size returns the best available size estimate, 0 if none.
func (r RawFormat) Size() int64 {
	if r.Filesize > 0 {
		return r.Filesize
	}
	return r.FilesizeApprox
}

// HasVideo reports whether the entry carries a video stream.
func (r RawFormat) HasVideo() bool {
	return r.VCodec != "" && r.VCodec != "none"
}

// HasAudio reports whether the entry carries an audio stream.
func (r RawFormat) HasAudio() bool {
	return r.ACodec != "" && r.ACodec != "none"
}

// FormatOption is one deduplicated, selectable encoding.
type FormatOption struct {
	Kind       FormatKind
	StreamType StreamType

	// FormatID is the extractor selector, e.g. "137+140" for an adaptive
	// video paired with its best audio.
	FormatID string
	Ext      string

	Resolution string // video only, e.g. "1080p"
	Bitrate    int    // audio only, kbps

	// TotalSize is the estimated output size in bytes. For adaptive video
	// it includes the paired audio stream.
	TotalSize int64

	// Compat scores container/codec player compatibility; higher wins ties.
	Compat int
}

// MediaSource identifies one download target with its resolved options.
type MediaSource struct {
	URL        string
	Title      string // sanitized for filesystem use
	Duration   time.Duration
	UploadedAt time.Time

	Video     []FormatOption
	Audio     []FormatOption
	Subtitles []string
}
