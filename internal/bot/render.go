package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telefetch/internal/domain/consts"
	"telefetch/internal/formats"
	"telefetch/internal/models"
	"telefetch/internal/progress"
)

// optionKeyboard lays out format buttons two per row, capped so the
// keyboard never overflows the platform limit.
func optionKeyboard(opts []models.FormatOption, prefix string, gen uint64) tgbotapi.InlineKeyboardMarkup {
	if len(opts) > consts.MaxDisplayedFormats {
		opts = opts[:consts.MaxDisplayedFormats]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, opt := range opts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			formats.Describe(opt), callbackData(prefix, i, gen)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// languageKeyboard lays out subtitle language buttons three per row.
func languageKeyboard(langs []string, gen uint64) tgbotapi.InlineKeyboardMarkup {
	if len(langs) > consts.MaxDisplayedFormats {
		langs = langs[:consts.MaxDisplayedFormats]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, lang := range langs {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			lang, callbackData(callbackSub, i, gen)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func callbackData(prefix string, index int, gen uint64) string {
	return prefix + ":" + strconv.Itoa(index) + ":" + strconv.FormatUint(gen, 10)
}

// captionFor builds the delivered file's caption.
func captionFor(task *models.DownloadTask) string {
	label := task.Option.Resolution
	if task.Option.Kind == models.KindAudio {
		label = strconv.Itoa(task.Option.Bitrate) + "kbps"
	}
	return task.Source.Title + " [" + label + "]"
}

// renderStats formats usage counters and recent history for /stats.
func renderStats(counts map[string]int64, recent []models.DownloadRecord) string {
	var b strings.Builder
	b.WriteString("Usage:\n")

	if len(counts) == 0 {
		b.WriteString("  (none yet)\n")
	} else {
		commands := make([]string, 0, len(counts))
		for cmd := range counts {
			commands = append(commands, cmd)
		}
		sort.Strings(commands)

		for _, cmd := range commands {
			fmt.Fprintf(&b, "  /%s: %d\n", cmd, counts[cmd])
		}
	}

	if len(recent) > 0 {
		b.WriteString("\nRecent downloads:\n")
		for _, r := range recent {
			fmt.Fprintf(&b, "  %s (%s, %s) - %s\n",
				r.Title, r.Site, progress.HumanBytes(r.Bytes), r.Outcome)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
