// Package upload streams finished artifacts back to the requesting
// chat, with its own progress throttle, and cleans up after delivery.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"telefetch/internal/models"
	"telefetch/internal/progress"
	"telefetch/internal/utils/logging"
)

// FileSender delivers a file to a chat. Implemented by the reply
// channel adapter.
type FileSender interface {
	SendFile(ctx context.Context, chatID int64, name string, r io.Reader, size int64, caption string, replyTo int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Relay sends artifacts. The tracker passed to Send must be a fresh
// instance: upload throttle state is independent of the download's.
type Relay struct {
	Sender FileSender
}

// Send streams the artifact to the chat. On success the local file and
// the progress status message are removed. On failure the status
// message shows the error, the file is left for the caller's cleanup,
// and an upload-category error is returned.
func (r *Relay) Send(ctx context.Context, task *models.DownloadTask, tracker *progress.Tracker, path, caption string, replyTo int) error {
	f, err := os.Open(path)
	if err != nil {
		return models.NewDownloadError(models.ErrCatUpload,
			fmt.Errorf("could not open artifact: %w", err))
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return models.NewDownloadError(models.ErrCatUpload,
			fmt.Errorf("could not stat artifact: %w", err))
	}

	pr := &progressReader{
		ctx:     ctx,
		r:       f,
		tracker: tracker,
		header:  "Uploading " + task.Source.Title,
		total:   info.Size(),
	}

	err = r.Sender.SendFile(ctx, task.ChatID, filepath.Base(path), pr, info.Size(), caption, replyTo)
	f.Close()

	if err != nil {
		tracker.Announce(ctx, "Upload failed for "+task.Source.Title)
		return models.NewDownloadError(models.ErrCatUpload,
			fmt.Errorf("send failed for %q: %w", path, err))
	}

	if err := os.Remove(path); err != nil {
		logging.W("Could not remove delivered artifact %q: %v", path, err)
	}
	if err := r.Sender.DeleteMessage(ctx, task.ChatID, task.StatusMessageID); err != nil {
		logging.D(1, "Could not delete status message %d: %v", task.StatusMessageID, err)
	}

	logging.S("Delivered %s to chat %d", filepath.Base(path), task.ChatID)
	return nil
}

// progressReader reports bytes as the transport consumes them.
type progressReader struct {
	ctx     context.Context
	r       io.Reader
	tracker *progress.Tracker
	header  string
	total   int64
	sent    int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.tracker.Report(p.ctx, p.header, p.sent, p.total, 0, 0, false)
	}
	return n, err
}
