package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telefetch/internal/formats"
	"telefetch/internal/models"
	"telefetch/internal/parsing"
	"telefetch/internal/progress"
	"telefetch/internal/session"
	"telefetch/internal/utils/logging"
)

const helpText = `Send me a link and pick a format:
/yt <url> - list video qualities
/yta <url> - list audio qualities
/subs <url> - list subtitle languages
/cancel - abort your running download
/stats - usage and recent downloads`

// handleMessage routes one incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	command := msg.Command()
	arg := strings.TrimSpace(msg.CommandArguments())

	switch command {
	case "start", "help":
		b.reply(ctx, msg.Chat.ID, helpText)
	case "yt":
		b.countCommand(ctx, msg.Chat.ID, "yt")
		b.handleResolve(ctx, msg, arg, models.KindVideo)
	case "yta":
		b.countCommand(ctx, msg.Chat.ID, "yta")
		b.handleResolve(ctx, msg, arg, models.KindAudio)
	case "subs":
		b.countCommand(ctx, msg.Chat.ID, "subs")
		b.handleSubList(ctx, msg, arg)
	case "cancel":
		b.countCommand(ctx, msg.Chat.ID, "cancel")
		b.handleCancel(ctx, msg)
	case "stats":
		b.countCommand(ctx, msg.Chat.ID, "stats")
		b.handleStats(ctx, msg)
	default:
		// Bare URLs get the video treatment.
		if parsing.LooksLikeURL(strings.TrimSpace(msg.Text)) {
			b.countCommand(ctx, msg.Chat.ID, "yt")
			b.handleResolve(ctx, msg, strings.TrimSpace(msg.Text), models.KindVideo)
		}
	}
}

// handleResolve enumerates formats for a URL and presents the
// selection keyboard.
func (b *Bot) handleResolve(ctx context.Context, msg *tgbotapi.Message, rawURL string, kind models.FormatKind) {
	if !parsing.LooksLikeURL(rawURL) {
		b.reply(ctx, msg.Chat.ID, "Send a full http(s) link, e.g. /yt https://...")
		return
	}

	noticeID, _ := b.Client.SendMessage(ctx, msg.Chat.ID, "Fetching available formats...", nil)

	source, err := b.resolveSource(ctx, rawURL)
	if err != nil {
		logging.E("Resolve failed for %q: %v", rawURL, err)
		b.editOrReply(ctx, msg.Chat.ID, noticeID, "Could not read that link. It may be private, removed, or unsupported.")
		return
	}

	var (
		opts       []models.FormatOption
		sessionKey string
		prefix     string
	)
	if kind == models.KindVideo {
		opts, sessionKey, prefix = source.Video, session.KeyVideoOptions, callbackVideo
	} else {
		opts, sessionKey, prefix = source.Audio, session.KeyAudioOptions, callbackAudio
	}

	if len(opts) == 0 {
		b.editOrReply(ctx, msg.Chat.ID, noticeID, "No downloadable formats found for that link.")
		return
	}

	gen := b.Sessions.Put(msg.Chat.ID, msg.From.ID, sessionKey, source)
	keyboard := optionKeyboard(opts, prefix, gen)

	header := fmt.Sprintf("%s\nDuration: %s\nPick a format:",
		source.Title, progress.HumanETA(source.Duration))

	if _, err := b.Client.SendMessage(ctx, msg.Chat.ID, header, &keyboard); err != nil {
		logging.E("Could not send format keyboard: %v", err)
		return
	}
	if noticeID != 0 {
		b.Client.DeleteMessage(ctx, msg.Chat.ID, noticeID)
	}
}

// handleSubList presents the subtitle language keyboard.
func (b *Bot) handleSubList(ctx context.Context, msg *tgbotapi.Message, rawURL string) {
	if !parsing.LooksLikeURL(rawURL) {
		b.reply(ctx, msg.Chat.ID, "Send a full http(s) link, e.g. /subs https://...")
		return
	}

	noticeID, _ := b.Client.SendMessage(ctx, msg.Chat.ID, "Checking subtitle tracks...", nil)

	source, err := b.resolveSource(ctx, rawURL)
	if err != nil {
		logging.E("Resolve failed for %q: %v", rawURL, err)
		b.editOrReply(ctx, msg.Chat.ID, noticeID, "Could not read that link.")
		return
	}

	if len(source.Subtitles) == 0 {
		b.editOrReply(ctx, msg.Chat.ID, noticeID, "No subtitles available for that link.")
		return
	}

	gen := b.Sessions.Put(msg.Chat.ID, msg.From.ID, session.KeySubLangs, source)
	keyboard := languageKeyboard(source.Subtitles, gen)

	if _, err := b.Client.SendMessage(ctx, msg.Chat.ID, source.Title+"\nPick a subtitle language:", &keyboard); err != nil {
		logging.E("Could not send subtitle keyboard: %v", err)
		return
	}
	if noticeID != 0 {
		b.Client.DeleteMessage(ctx, msg.Chat.ID, noticeID)
	}
}

// handleCancel flips the caller's cancellation flag.
func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message) {
	if b.Registry.RequestCancel(msg.From.ID) {
		desc, _ := b.Registry.ActiveDescription(msg.From.ID)
		b.reply(ctx, msg.Chat.ID, "Cancelling "+desc+"...")
		return
	}
	b.reply(ctx, msg.Chat.ID, "You have no download running.")
}

// handleStats renders usage counters and recent history for the chat.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if b.Store == nil {
		b.reply(ctx, msg.Chat.ID, "Stats are not enabled.")
		return
	}

	counts, err := b.Store.CommandCounts(ctx, msg.Chat.ID)
	if err != nil {
		logging.E("Could not read usage counters: %v", err)
		b.reply(ctx, msg.Chat.ID, "Could not read stats.")
		return
	}

	recent, err := b.Store.RecentDownloads(ctx, msg.Chat.ID, 5)
	if err != nil {
		logging.E("Could not read download history: %v", err)
	}

	b.reply(ctx, msg.Chat.ID, renderStats(counts, recent))
}

// resolveSource runs metadata extraction and format resolution for a
// URL, returning a ready MediaSource.
func (b *Bot) resolveSource(ctx context.Context, rawURL string) (models.MediaSource, error) {
	meta, err := b.extractorFor(ctx, rawURL).Resolve(ctx, rawURL)
	if err != nil {
		return models.MediaSource{}, models.NewDownloadError(models.ErrCatResolve, err)
	}

	video, audio, err := formats.Resolve(meta.Formats)
	if err != nil {
		return models.MediaSource{}, models.NewDownloadError(models.ErrCatResolve, err)
	}

	return models.MediaSource{
		URL:        rawURL,
		Title:      formats.SanitizeTitle(meta.Title),
		Duration:   meta.Duration,
		UploadedAt: formats.ParseUploadDate(meta.UploadDate),
		Video:      video,
		Audio:      audio,
		Subtitles:  meta.Subtitles,
	}, nil
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.Client.SendMessage(ctx, chatID, text, nil); err != nil {
		logging.D(1, "Reply to chat %d failed: %v", chatID, err)
	}
}

// editOrReply rewrites the notice message when one exists, otherwise
// sends a fresh reply.
func (b *Bot) editOrReply(ctx context.Context, chatID int64, messageID int, text string) {
	if messageID != 0 {
		if err := b.Client.EditStatus(ctx, chatID, messageID, text); err == nil {
			return
		}
	}
	b.reply(ctx, chatID, text)
}
