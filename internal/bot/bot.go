// Package bot routes chat commands and button presses into the
// download pipeline.
package bot

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telefetch/internal/cookies"
	"telefetch/internal/domain/consts"
	"telefetch/internal/downloads"
	"telefetch/internal/extractor"
	"telefetch/internal/registry"
	"telefetch/internal/repo"
	"telefetch/internal/session"
	"telefetch/internal/telegram"
	"telefetch/internal/utils/logging"
)

// Bot owns the long-lived collaborators of the chat surface. One Bot
// serves all chats; per-task state lives in the registry and sessions.
type Bot struct {
	Client   *telegram.Client
	Cookies  *cookies.Exporter
	Sessions *session.Store
	Registry *registry.DownloadRegistry
	Store    *repo.UsageStore

	// DownloadDir is the root staging area; each user gets a
	// subdirectory.
	DownloadDir string
	YtDLPBin    string

	// CookieSource names a browser for the tool's own cookie reading;
	// empty falls back to the kooky export.
	CookieSource string

	MaxUploadBytes int64
	MaxRetries     int
	AttemptTimeout time.Duration
}

// Run consumes updates until ctx is cancelled. Each update is handled
// on its own goroutine so a long download never blocks the poll loop.
func (b *Bot) Run(ctx context.Context) {
	logging.S("Bot @%s is up", b.Client.Username())

	updates := b.Client.Updates()
	for {
		select {
		case <-ctx.Done():
			b.Client.Stop()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handle(ctx, update)
		}
	}
}

// handle dispatches one update, recovering panics so a single bad
// update cannot take down the loop.
func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logging.E("Recovered from panic handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// extractorFor builds a per-URL extractor client, attaching a cookie
// file when the user's browser holds cookies for the site.
func (b *Bot) extractorFor(ctx context.Context, url string) *extractor.Client {
	c := extractor.New(b.YtDLPBin)

	if b.CookieSource != "" {
		c.CookieBrowser = b.CookieSource
		return c
	}

	cookieFile, err := b.Cookies.FileFor(ctx, url)
	if err != nil {
		logging.D(1, "Cookie export failed for %q: %v", url, err)
		return c
	}
	c.CookieFile = cookieFile
	return c
}

// stagingDir returns (creating if needed) the user's download
// directory.
func (b *Bot) stagingDir(userID int64) (string, error) {
	dir := filepath.Join(b.DownloadDir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// orchestrator builds a download orchestrator over the given fetcher.
func (b *Bot) orchestrator(f downloads.Fetcher) *downloads.Orchestrator {
	return &downloads.Orchestrator{
		Fetcher:        f,
		Cancels:        b.Registry,
		MaxUploadBytes: b.MaxUploadBytes,
		MaxRetries:     b.MaxRetries,
		BaseDelay:      consts.RetryBaseDelay,
		MaxDelay:       consts.RetryMaxDelay,
		AttemptTimeout: b.AttemptTimeout,
	}
}

// countCommand bumps the usage counter, best effort.
func (b *Bot) countCommand(ctx context.Context, chatID int64, command string) {
	if b.Store == nil {
		return
	}
	if err := b.Store.IncrCommand(ctx, chatID, command); err != nil {
		logging.D(1, "Usage counter update failed: %v", err)
	}
}
