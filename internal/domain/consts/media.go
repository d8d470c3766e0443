// Package consts holds various global, unchanging values.
package consts

// AllVidExtensions is a list of video file extensions.
var AllVidExtensions = [...]string{".3gp", ".avi", ".f4v", ".flv", ".m4v", ".mkv",
	".mov", ".mp4", ".mpeg", ".mpg", ".ogm", ".ogv",
	".ts", ".vob", ".webm", ".wmv"}

// AllAudioExtensions is a list of audio file extensions.
var AllAudioExtensions = [...]string{".aac", ".flac", ".m4a", ".mp3", ".ogg",
	".opus", ".wav", ".weba"}

// Video codecs ordered by player compatibility concerns.
const (
	VCodecAV1  = "av01"
	VCodecH264 = "avc1"
	VCodecHEVC = "hev1"
	VCodecVP9  = "vp9"
	VCodecVP8  = "vp8"
)

// Audio codecs.
const (
	ACodecAAC  = "mp4a"
	ACodecMP3  = "mp3"
	ACodecOpus = "opus"
)

// Container extensions.
const (
	ExtMP4  = "mp4"
	ExtWebM = "webm"
	ExtMKV  = "mkv"
	ExtM4A  = "m4a"
	ExtMP3  = "mp3"
	ExtSRT  = "srt"
)
