// Package keys holds the viper key strings for program settings.
package keys

// Terminal keys
const (
	BotToken     string = "bot-token"
	DownloadDir  string = "download-dir"
	DBPath       string = "db-path"
	YtDLPPath    string = "ytdlp-path"
	CookieSource string = "cookie-source"

	MaxUploadMB     string = "max-upload-mb"
	DLRetries       string = "dl-retries"
	DownloadTimeout string = "download-timeout"

	DebugLevel string = "debug-level"
	LogDir     string = "log-dir"
)

// Internal
const (
	Execute string = "execute"
)
