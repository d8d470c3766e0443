// Package ytcmd holds yt-dlp command strings.
package ytcmd

// General
const (
	YTDLP                = "yt-dlp"
	AfterMove            = "after_move:%(filepath)s"
	CookiePath           = "--cookies"
	CookiesFromBrowser   = "--cookies-from-browser"
	Format               = "-f"
	MaxFilesize          = "--max-filesize"
	MergeOutputFormat    = "--merge-output-format"
	Newline              = "--newline"
	NoPlaylist           = "--no-playlist"
	Output               = "-o"
	Print                = "--print"
	ProgressTemplate     = "--progress-template"
	RemuxVideo           = "--remux-video"
	RestrictFilenames    = "--restrict-filenames"
	Retries              = "--retries"
)

// Metadata only
const (
	DumpJSON  = "-J"
	SkipVideo = "--skip-download"
)

// Audio extraction
const (
	ExtractAudio = "-x"
	AudioFormat  = "--audio-format"
)

// Subtitles
const (
	WriteSubs   = "--write-subs"
	SubLangs    = "--sub-langs"
	ConvertSubs = "--convert-subs"
)

// ProgressLine is the template handed to yt-dlp so every progress event
// arrives on stdout as one parseable line.
const ProgressLine = "download:" + ProgressPrefix +
	"|%(progress.status)s" +
	"|%(progress.downloaded_bytes)s" +
	"|%(progress.total_bytes)s" +
	"|%(progress.total_bytes_estimate)s" +
	"|%(progress.speed)s" +
	"|%(progress.eta)s" +
	"|%(progress.filename)s"

// ProgressPrefix marks progress lines in the command output.
const ProgressPrefix = "TFPROG"
