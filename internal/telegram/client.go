// Package telegram adapts the Bot API into the reply-channel surface
// the core consumes: messages, status edits, file delivery, deletion.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// Client wraps the Bot API with a global outgoing limiter so bursts of
// per-task traffic stay under the platform's overall send budget. Per
// message cooldowns are the progress trackers' concern; this limiter
// only smooths the aggregate rate.
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewClient returns a client over an authorized Bot API handle.
func NewClient(api *tgbotapi.BotAPI) *Client {
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 5),
	}
}

// SendMessage sends text, optionally with an inline keyboard, and
// returns the new message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, mapError(err)
	}
	return sent.MessageID, nil
}

// EditStatus rewrites a message's text. Implements progress.Editor;
// platform rate limits surface as *models.RateLimitedError.
func (c *Client) EditStatus(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := c.api.Send(edit); err != nil {
		return mapError(err)
	}
	return nil
}

// SendFile streams a document to the chat. Implements
// upload.FileSender.
func (c *Client) SendFile(ctx context.Context, chatID int64, name string, r io.Reader, size int64, caption string, replyTo int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: name, Reader: r})
	doc.Caption = caption
	if replyTo != 0 {
		doc.ReplyToMessageID = replyTo
	}

	logging.D(1, "Sending file %q (%d bytes) to chat %d", name, size, chatID)

	if _, err := c.api.Send(doc); err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteMessage removes a message from the chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return mapError(err)
	}
	return nil
}

// Updates opens the long-poll update channel.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return c.api.GetUpdatesChan(u)
}

// Stop closes the update channel.
func (c *Client) Stop() {
	c.api.StopReceivingUpdates()
}

// Username returns the bot account's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) {
	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logging.D(1, "Callback answer failed: %v", err)
	}
}

// mapError converts Bot API rate limiting into the typed error the
// progress trackers understand.
func mapError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return &models.RateLimitedError{
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
		}
	}
	return fmt.Errorf("telegram request failed: %w", err)
}
