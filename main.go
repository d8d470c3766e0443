package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telefetch/internal/bot"
	"telefetch/internal/cfg"
	"telefetch/internal/cookies"
	"telefetch/internal/database"
	"telefetch/internal/domain/keys"
	"telefetch/internal/registry"
	"telefetch/internal/repo"
	"telefetch/internal/session"
	"telefetch/internal/telegram"
	logging "telefetch/internal/utils/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
)

var startTime time.Time

func init() {
	startTime = time.Now()
}

// main is the program entrypoint.
func main() {
	if err := cfg.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Println()
		os.Exit(1)
	}

	if !viper.GetBool(keys.Execute) {
		fmt.Println()
		return // Exit early if not meant to execute (e.g. --help)
	}

	if err := logging.SetupLogging(viper.GetString(keys.LogDir)); err != nil {
		fmt.Printf("\n\nNotice: Log file was not created\nReason: %s\n\n", err)
	}

	logging.I("telefetch started at: %v", startTime.Format("2006-01-02 15:04:05.00 MST"))

	if err := run(); err != nil {
		logging.E("%v", err)
		os.Exit(1)
	}

	endTime := time.Now()
	logging.I("telefetch finished at: %v", endTime.Format("2006-01-02 15:04:05.00 MST"))
	logging.I("Time elapsed: %.2f seconds", endTime.Sub(startTime).Seconds())
}

// run wires the collaborators together and serves until interrupted.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dc, err := database.InitDB(viper.GetString(keys.DBPath))
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer dc.DB.Close()

	api, err := tgbotapi.NewBotAPI(viper.GetString(keys.BotToken))
	if err != nil {
		return fmt.Errorf("bot authorization failed: %w", err)
	}

	downloadDir := viper.GetString(keys.DownloadDir)

	b := &bot.Bot{
		Client:         telegram.NewClient(api),
		Cookies:        cookies.NewExporter(downloadDir),
		Sessions:       session.NewStore(),
		Registry:       registry.New(),
		Store:          repo.GetUsageStore(dc.DB),
		DownloadDir:    downloadDir,
		YtDLPBin:       viper.GetString(keys.YtDLPPath),
		CookieSource:   viper.GetString(keys.CookieSource),
		MaxUploadBytes: viper.GetInt64(keys.MaxUploadMB) * 1024 * 1024,
		MaxRetries:     viper.GetInt(keys.DLRetries),
		AttemptTimeout: viper.GetDuration(keys.DownloadTimeout),
	}

	b.Run(ctx)
	return nil
}
