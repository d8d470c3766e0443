package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telefetch/internal/domain/consts"
	"telefetch/internal/downloads"
	"telefetch/internal/models"
	"telefetch/internal/parsing"
	"telefetch/internal/progress"
	"telefetch/internal/session"
	"telefetch/internal/upload"
	"telefetch/internal/utils/logging"
)

// Callback data prefixes. Data is "<prefix>:<index>:<generation>",
// e.g. "vid:3:17".
const (
	callbackVideo = "vid"
	callbackAudio = "aud"
	callbackSub   = "sub"
)

// handleCallback routes one button press.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}

	prefix, index, gen, err := parseCallbackData(cb.Data)
	if err != nil {
		logging.D(1, "Ignoring malformed callback %q: %v", cb.Data, err)
		b.Client.AnswerCallback(ctx, cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	switch prefix {
	case callbackVideo:
		b.startDownload(ctx, cb, chatID, userID, session.KeyVideoOptions, index, gen)
	case callbackAudio:
		b.startDownload(ctx, cb, chatID, userID, session.KeyAudioOptions, index, gen)
	case callbackSub:
		b.startSubtitles(ctx, cb, chatID, userID, index, gen)
	default:
		b.Client.AnswerCallback(ctx, cb.ID, "")
	}
}

// startDownload runs the full selection-to-delivery pipeline for one
// button press.
func (b *Bot) startDownload(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, userID int64, sessionKey string, index int, gen uint64) {
	entry, err := b.Sessions.Get(chatID, userID, sessionKey, gen)
	if err != nil {
		b.Client.AnswerCallback(ctx, cb.ID, "That selection expired. Send the link again.")
		return
	}
	source := entry.Source

	opts := source.Video
	if sessionKey == session.KeyAudioOptions {
		opts = source.Audio
	}
	if index < 0 || index >= len(opts) {
		b.Client.AnswerCallback(ctx, cb.ID, "That selection expired. Send the link again.")
		return
	}
	opt := opts[index]

	dir, err := b.stagingDir(userID)
	if err != nil {
		logging.E("Could not create staging dir for user %d: %v", userID, err)
		b.Client.AnswerCallback(ctx, cb.ID, "Internal error, try again later.")
		return
	}

	task := &models.DownloadTask{
		ID:     uuid.New(),
		UserID: userID,
		ChatID: chatID,
		Source: source,
		Option: opt,
		Dir:    dir,
	}

	if !b.Registry.TryAcquire(userID, task.Describe()) {
		desc, _ := b.Registry.ActiveDescription(userID)
		b.Client.AnswerCallback(ctx, cb.ID, "Already downloading "+desc+". Use /cancel first.")
		return
	}

	b.Client.AnswerCallback(ctx, cb.ID, "Starting...")
	b.Sessions.Drop(chatID, userID, sessionKey)

	go func() {
		defer b.Registry.Release(userID)
		defer func() {
			if r := recover(); r != nil {
				logging.E("Recovered from panic in download %s: %v", task.ID, r)
			}
		}()
		b.runDownload(ctx, task)
	}()
}

// runDownload owns the task from admission to terminal state. It
// always records an outcome row and leaves the status message
// describing the result on failure.
func (b *Bot) runDownload(ctx context.Context, task *models.DownloadTask) {
	statusID, err := b.Client.SendMessage(ctx, task.ChatID, "Preparing "+task.Source.Title+"...", nil)
	if err != nil {
		logging.E("Could not create status message: %v", err)
		return
	}
	task.StatusMessageID = statusID

	tracker := progress.New(b.Client, task.ChatID, statusID,
		consts.DownloadUpdateInterval, consts.UpdateByteDelta)

	orc := b.orchestrator(b.extractorFor(ctx, task.Source.URL))

	path, err := orc.Run(ctx, task, tracker)
	if err != nil {
		b.finishFailed(ctx, task, err)
		return
	}

	uploadTracker := progress.New(b.Client, task.ChatID, statusID,
		consts.UploadUpdateInterval, consts.UpdateByteDelta)

	relay := &upload.Relay{Sender: b.Client}
	caption := captionFor(task)
	size := fileSize(path)

	if err := relay.Send(ctx, task, uploadTracker, path, caption, 0); err != nil {
		b.finishFailed(ctx, task, err)
		return
	}

	b.recordOutcome(ctx, task, size, "delivered")
	logging.S("Task %s complete for user %d", task.ID, task.UserID)
}

// finishFailed converts a terminal error into a user-facing status
// message and a history row. Whatever the category, no local files
// survive a terminal state.
func (b *Bot) finishFailed(ctx context.Context, task *models.DownloadTask, err error) {
	cat := models.CategoryOf(err)
	if cat == models.ErrCatCancelled {
		logging.I("Task %s cancelled: %v", task.ID, err)
	} else {
		logging.E("Task %s failed (%s): %v", task.ID, cat, err)
	}

	removeArtifacts(task)

	b.editOrReply(ctx, task.ChatID, task.StatusMessageID, failureText(task, cat))
	b.recordOutcome(ctx, task, 0, cat.String())
}

// removeArtifacts purges the task's downloaded files after a terminal
// failure. The relay owns deletion on the success path; every failure
// path lands here.
func removeArtifacts(task *models.DownloadTask) {
	if task.Dir == "" {
		return
	}
	downloads.PurgePartials(task.Dir, downloads.Stem(task), "")
}

// failureText maps an error category to the message shown in chat.
func failureText(task *models.DownloadTask, cat models.ErrCategory) string {
	switch cat {
	case models.ErrCatCancelled:
		return "Cancelled " + task.Source.Title + "."
	case models.ErrCatSizeExceeded:
		return task.Source.Title + " is too large to send here. Try a smaller format."
	case models.ErrCatNetwork:
		return "Download of " + task.Source.Title + " kept failing. Try again later."
	case models.ErrCatUpload:
		return "Downloaded " + task.Source.Title + " but could not send it. Try again."
	default:
		return "Download of " + task.Source.Title + " failed."
	}
}

// recordOutcome appends the task's terminal state to the history.
func (b *Bot) recordOutcome(ctx context.Context, task *models.DownloadTask, bytes int64, outcome string) {
	if b.Store == nil {
		return
	}

	site, err := parsing.BaseDomain(task.Source.URL)
	if err != nil {
		site = ""
	}

	rec := models.DownloadRecord{
		URL:        task.Source.URL,
		Site:       site,
		Title:      task.Source.Title,
		FormatID:   task.Option.FormatID,
		Bytes:      bytes,
		Outcome:    outcome,
		UserID:     task.UserID,
		ChatID:     task.ChatID,
		FinishedAt: time.Now(),
	}
	if err := b.Store.RecordDownload(ctx, rec); err != nil {
		logging.D(1, "History write failed: %v", err)
	}
}

// startSubtitles fetches and delivers one subtitle track.
func (b *Bot) startSubtitles(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID, userID int64, index int, gen uint64) {
	entry, err := b.Sessions.Get(chatID, userID, session.KeySubLangs, gen)
	if err != nil {
		b.Client.AnswerCallback(ctx, cb.ID, "That selection expired. Send the link again.")
		return
	}
	source := entry.Source

	if index < 0 || index >= len(source.Subtitles) {
		b.Client.AnswerCallback(ctx, cb.ID, "That selection expired. Send the link again.")
		return
	}
	lang := source.Subtitles[index]

	b.Client.AnswerCallback(ctx, cb.ID, "Fetching "+lang+" subtitles...")
	b.Sessions.Drop(chatID, userID, session.KeySubLangs)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.E("Recovered from panic in subtitle fetch: %v", r)
			}
		}()

		dir, err := b.stagingDir(userID)
		if err != nil {
			logging.E("Could not create staging dir for user %d: %v", userID, err)
			return
		}

		stem := filepath.Join(dir, source.Title+"_"+lang)
		path, err := b.extractorFor(ctx, source.URL).FetchSubtitles(ctx, source.URL, lang, stem)
		if err != nil {
			logging.E("Subtitle fetch failed for %q (%s): %v", source.URL, lang, err)
			b.reply(ctx, chatID, "No "+lang+" subtitles could be fetched for "+source.Title+".")
			return
		}

		b.sendSubtitleFile(ctx, chatID, source.Title, lang, path)
	}()
}

// sendSubtitleFile delivers a subtitle artifact and removes it.
func (b *Bot) sendSubtitleFile(ctx context.Context, chatID int64, title, lang, path string) {
	task := &models.DownloadTask{
		ChatID: chatID,
		Source: models.MediaSource{Title: title + " [" + lang + " subtitles]"},
	}

	statusID, err := b.Client.SendMessage(ctx, chatID, "Sending subtitles...", nil)
	if err != nil {
		logging.E("Could not create subtitle status message: %v", err)
		return
	}
	task.StatusMessageID = statusID

	tracker := progress.New(b.Client, chatID, statusID,
		consts.UploadUpdateInterval, consts.UpdateByteDelta)

	relay := &upload.Relay{Sender: b.Client}
	if err := relay.Send(ctx, task, tracker, path, title+" ("+lang+")", 0); err != nil {
		logging.E("Subtitle delivery failed: %v", err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.W("Could not remove subtitle file %q: %v", path, rmErr)
		}
		b.editOrReply(ctx, chatID, statusID, "Could not send the subtitle file.")
	}
}

// parseCallbackData splits "<prefix>:<index>:<generation>".
func parseCallbackData(data string) (prefix string, index int, gen uint64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}

	index, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad index %q: %w", parts[1], err)
	}

	gen, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad generation %q: %w", parts[2], err)
	}

	return parts[0], index, gen, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
