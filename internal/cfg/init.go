// Package cfg wires the command line flags and environment into viper.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"

	"telefetch/internal/domain/consts"
	"telefetch/internal/domain/keys"
	"telefetch/internal/utils/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "telefetch",
	Short: "Telefetch is a Telegram bot for fetching video and audio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("help").Changed {
			return nil // Stop further execution if help is invoked
		}
		viper.Set(keys.Execute, true)
		return nil
	},
}

// Execute binds flags, validates settings, and runs the root command.
func Execute() error {
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return verify()
}

func initFlags() {
	setMainFlags(rootCmd)
	setDownloadFlags(rootCmd)
	setProgramFlags(rootCmd)
}

// verify verifies that the user input flags are valid.
func verify() error {
	if !viper.GetBool(keys.Execute) {
		return nil
	}

	if viper.GetString(keys.BotToken) == "" {
		if tok := os.Getenv("TELEFETCH_BOT_TOKEN"); tok != "" {
			viper.Set(keys.BotToken, tok)
		} else {
			return fmt.Errorf("no bot token set (use --%s or TELEFETCH_BOT_TOKEN)", keys.BotToken)
		}
	}

	if err := verifyDownloadDir(); err != nil {
		return err
	}

	verifyMaxUpload()
	verifyRetries()
	verifyDebugLevel()
	return nil
}

// verifyDownloadDir ensures the working directory exists and defaults
// the database path inside it.
func verifyDownloadDir() error {
	dir := viper.GetString(keys.DownloadDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "telefetch")
		viper.Set(keys.DownloadDir, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory %q: %w", dir, err)
	}

	if viper.GetString(keys.DBPath) == "" {
		viper.Set(keys.DBPath, filepath.Join(dir, "telefetch.db"))
	}
	if viper.GetString(keys.LogDir) == "" {
		viper.Set(keys.LogDir, dir)
	}
	return nil
}

// verifyMaxUpload clamps the upload ceiling to the platform limit.
func verifyMaxUpload() {
	maxMB := viper.GetInt64(keys.MaxUploadMB)
	limitMB := int64(consts.DefaultMaxUploadBytes / (1024 * 1024))

	switch {
	case maxMB < 1:
		maxMB = limitMB
		logging.D(1, "Max upload size unset, using platform limit: %d MB", maxMB)
	case maxMB > limitMB:
		maxMB = limitMB
		logging.W("Max upload size above platform limit, clamped to %d MB", maxMB)
	}
	viper.Set(keys.MaxUploadMB, maxMB)
}

// verifyRetries ensures a sane retry budget.
func verifyRetries() {
	retries := viper.GetInt(keys.DLRetries)
	if retries < 0 {
		retries = consts.DefaultMaxRetries
		logging.W("Retry count cannot be negative, set to default: %d", retries)
		viper.Set(keys.DLRetries, retries)
	}
}

// verifyDebugLevel checks and sets the debugging level.
func verifyDebugLevel() {
	dLevel := viper.GetInt(keys.DebugLevel)
	if dLevel < 0 || dLevel > 5 {
		logging.I("Debug level must be between 0 and 5, got %d. Setting to 0.", dLevel)
		dLevel = 0
		viper.Set(keys.DebugLevel, dLevel)
	}
	logging.Level = dLevel
}
