package upload_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"telefetch/internal/models"
	"telefetch/internal/progress"
	"telefetch/internal/upload"
)

type countingEditor struct{ edits int }

func (c *countingEditor) EditStatus(context.Context, int64, int, string) error {
	c.edits++
	return nil
}

type fakeSender struct {
	fail       bool
	received   int64
	deletedMsg int
}

func (f *fakeSender) SendFile(_ context.Context, _ int64, _ string, r io.Reader, _ int64, _ string, _ int) error {
	if f.fail {
		return errors.New("bad gateway")
	}
	n, err := io.Copy(io.Discard, r)
	f.received = n
	return err
}

func (f *fakeSender) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.deletedMsg = messageID
	return nil
}

func writeArtifact(t *testing.T, size int) (string, *models.DownloadTask) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "clip_720p.mp4")
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}

	task := &models.DownloadTask{
		ChatID:          10,
		StatusMessageID: 55,
		Source:          models.MediaSource{Title: "clip"},
		Dir:             dir,
	}
	return path, task
}

func TestSendDeliversAndCleansUp(t *testing.T) {
	path, task := writeArtifact(t, 4096)
	sender := &fakeSender{}
	ed := &countingEditor{}
	tracker := progress.New(ed, task.ChatID, task.StatusMessageID, 5*time.Second, 1<<20)

	relay := &upload.Relay{Sender: sender}
	if err := relay.Send(context.Background(), task, tracker, path, "caption", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.received != 4096 {
		t.Fatalf("expected 4096 bytes streamed, got %d", sender.received)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("artifact must be deleted after successful upload")
	}
	if sender.deletedMsg != 55 {
		t.Fatalf("expected status message 55 deleted, got %d", sender.deletedMsg)
	}
}

func TestSendFailureKeepsFileAndReportsUploadCategory(t *testing.T) {
	path, task := writeArtifact(t, 128)
	sender := &fakeSender{fail: true}
	tracker := progress.New(&countingEditor{}, task.ChatID, task.StatusMessageID, 5*time.Second, 1<<20)

	relay := &upload.Relay{Sender: sender}
	err := relay.Send(context.Background(), task, tracker, path, "", 0)
	if !models.IsCategory(err, models.ErrCatUpload) {
		t.Fatalf("expected upload category, got %v", err)
	}

	// Deletion on failure is the caller's cleanup concern.
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatal("artifact must survive a failed upload for the caller to clean up")
	}
}

func TestUploadProgressIsThrottled(t *testing.T) {
	const size = 8 << 20
	path, task := writeArtifact(t, size)
	sender := &fakeSender{}
	ed := &countingEditor{}
	tracker := progress.New(ed, task.ChatID, task.StatusMessageID, 5*time.Second, 3*1024*1024)

	relay := &upload.Relay{Sender: sender}
	if err := relay.Send(context.Background(), task, tracker, path, "", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// io.Copy reads in 32KB chunks, so the reader reports 256 times;
	// the gates must admit strictly fewer edits than that.
	if ed.edits >= size/(32<<10) {
		t.Fatalf("expected throttled edits, got %d", ed.edits)
	}
	if ed.edits == 0 {
		t.Fatal("expected at least one progress edit")
	}
}
