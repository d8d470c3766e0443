package cfg

import (
	"telefetch/internal/domain/consts"
	"telefetch/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// setMainFlags sets the core bot identity and path flags.
func setMainFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(keys.BotToken, "", "Telegram bot token (falls back to TELEFETCH_BOT_TOKEN)")
	cmd.PersistentFlags().StringP(keys.DownloadDir, "d", "", "Working directory for downloads, logs, and the database")
	cmd.PersistentFlags().String(keys.DBPath, "", "Path to the SQLite database file")
	cmd.PersistentFlags().String(keys.YtDLPPath, "yt-dlp", "Path to the yt-dlp binary")

	viper.BindPFlag(keys.BotToken, cmd.PersistentFlags().Lookup(keys.BotToken))
	viper.BindPFlag(keys.DownloadDir, cmd.PersistentFlags().Lookup(keys.DownloadDir))
	viper.BindPFlag(keys.DBPath, cmd.PersistentFlags().Lookup(keys.DBPath))
	viper.BindPFlag(keys.YtDLPPath, cmd.PersistentFlags().Lookup(keys.YtDLPPath))
}

// setDownloadFlags sets flags related to download tasks.
func setDownloadFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64(keys.MaxUploadMB, 0, "Maximum file size to relay, in MB (clamped to the platform limit)")
	cmd.PersistentFlags().Int(keys.DLRetries, consts.DefaultMaxRetries, "Number of retries to attempt a download before failure")
	cmd.PersistentFlags().Duration(keys.DownloadTimeout, 0, "Wall clock ceiling for a single download attempt (0 disables)")
	cmd.PersistentFlags().String(keys.CookieSource, "", "Browser to source cookies from (e.g. firefox), empty searches all")

	viper.BindPFlag(keys.MaxUploadMB, cmd.PersistentFlags().Lookup(keys.MaxUploadMB))
	viper.BindPFlag(keys.DLRetries, cmd.PersistentFlags().Lookup(keys.DLRetries))
	viper.BindPFlag(keys.DownloadTimeout, cmd.PersistentFlags().Lookup(keys.DownloadTimeout))
	viper.BindPFlag(keys.CookieSource, cmd.PersistentFlags().Lookup(keys.CookieSource))
}

// setProgramFlags sets flags for logging and debugging.
func setProgramFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int(keys.DebugLevel, 0, "Debugging level (0 - 5)")
	cmd.PersistentFlags().String(keys.LogDir, "", "Directory to write the log file into")

	viper.BindPFlag(keys.DebugLevel, cmd.PersistentFlags().Lookup(keys.DebugLevel))
	viper.BindPFlag(keys.LogDir, cmd.PersistentFlags().Lookup(keys.LogDir))
}
