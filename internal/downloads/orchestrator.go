// Package downloads runs one media acquisition end to end: stream
// selection, staged progress, transient-failure retries, cooperative
// cancellation, and partial-file cleanup.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"telefetch/internal/domain/consts"
	"telefetch/internal/extractor"
	"telefetch/internal/models"
	"telefetch/internal/progress"
	"telefetch/internal/utils/logging"
)

// Fetcher acquires one stream (or adaptive pair), reporting progress
// through the callback. Implemented by the extractor client.
type Fetcher interface {
	Fetch(ctx context.Context, req extractor.FetchRequest, progress extractor.ProgressFunc) (string, error)
}

// CancelRegistry exposes the per-user cancellation flag the
// orchestrator polls. Implemented by the download registry.
type CancelRegistry interface {
	CancelRequested(userID int64) bool
}

// Orchestrator drives downloads. Admission control (one task per user)
// belongs to the caller; the orchestrator only polls the cancel flag.
type Orchestrator struct {
	Fetcher Fetcher
	Cancels CancelRegistry

	// MaxUploadBytes rejects oversized candidates before and after
	// download; zero disables the check.
	MaxUploadBytes int64

	// MaxRetries is the number of extra attempts after the first.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// AttemptTimeout is the per-attempt wall-clock ceiling; zero
	// disables it.
	AttemptTimeout time.Duration
}

// Stem returns the filename stem all of a task's artifacts share; it
// anchors both output naming and partial-file cleanup.
func Stem(task *models.DownloadTask) string {
	label := task.Option.Resolution
	if task.Option.Kind == models.KindAudio {
		label = strconv.Itoa(task.Option.Bitrate) + "kbps"
	}
	return task.Source.Title + "_" + label
}

// Run performs the download and returns the local artifact path. On
// every failure path partial files matching the task's stem are purged
// before the error is returned.
func (o *Orchestrator) Run(ctx context.Context, task *models.DownloadTask, tracker *progress.Tracker) (string, error) {
	stem := Stem(task)

	if o.MaxUploadBytes > 0 && task.Option.TotalSize > o.MaxUploadBytes {
		return "", models.NewDownloadError(models.ErrCatSizeExceeded,
			fmt.Errorf("estimated size %d exceeds upload limit %d", task.Option.TotalSize, o.MaxUploadBytes))
	}

	var lastErr error
	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		if o.Cancels.CancelRequested(task.UserID) {
			PurgePartials(task.Dir, stem, "")
			return "", cancelled(task)
		}

		if attempt > 0 {
			logging.I("Retrying download for user %d (attempt %d/%d): %v",
				task.UserID, attempt, o.MaxRetries, lastErr)
			if err := o.waitRetry(ctx, attempt, task.UserID); err != nil {
				PurgePartials(task.Dir, stem, "")
				return "", err
			}
		}

		path, err := o.attempt(ctx, task, tracker, stem)
		if err == nil {
			if err := o.checkFinalSize(path); err != nil {
				PurgePartials(task.Dir, stem, "")
				return "", err
			}
			return path, nil
		}
		lastErr = err

		if models.IsCategory(err, models.ErrCatCancelled) {
			PurgePartials(task.Dir, stem, "")
			return "", err
		}
		if Classify(err) == ClassPermanent {
			PurgePartials(task.Dir, stem, "")
			return "", models.NewDownloadError(models.ErrCatUnexpected, err)
		}
		// Transient: partials stay on disk so the next attempt can
		// resume them.
	}

	PurgePartials(task.Dir, stem, "")
	return "", models.NewDownloadError(models.ErrCatNetwork,
		fmt.Errorf("all %d attempts failed: %w", o.MaxRetries+1, lastErr))
}

// attempt performs a single acquisition. Progress events are marshalled
// off the extractor's callback context through a buffered channel; the
// callback itself only checks the cancel flag and enqueues.
func (o *Orchestrator) attempt(ctx context.Context, task *models.DownloadTask, tracker *progress.Tracker, stem string) (string, error) {
	attemptCtx := ctx
	if o.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.AttemptTimeout)
		defer cancel()
	}

	st := newStageState(task.Option)
	events := make(chan models.ProgressEvent, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		cancelling := false
		for ev := range events {
			if cancelling {
				continue
			}
			if o.Cancels.CancelRequested(task.UserID) {
				cancelling = true
				tracker.Announce(ctx, "Cancelling "+task.Source.Title+"...")
				continue
			}

			cur, total := st.apply(ev)
			tracker.Report(ctx, header(task, st.Stage()), cur, total, ev.Speed, ev.ETA, false)
		}
	}()

	cb := func(ev models.ProgressEvent) error {
		if o.Cancels.CancelRequested(task.UserID) {
			return cancelled(task)
		}
		select {
		case events <- ev:
		default:
			// UI is behind; dropping an event is cheaper than stalling
			// the download.
		}
		return nil
	}

	path, err := o.Fetcher.Fetch(attemptCtx, o.buildRequest(task, stem), cb)

	close(events)
	<-done

	if err != nil {
		return "", err
	}

	if size := fileSize(path); size > 0 {
		tracker.Report(ctx, header(task, st.Stage()), size, size, 0, 0, true)
	}
	return path, nil
}

func (o *Orchestrator) buildRequest(task *models.DownloadTask, stem string) extractor.FetchRequest {
	req := extractor.FetchRequest{
		URL:        task.Source.URL,
		FormatID:   task.Option.FormatID,
		OutputStem: filepath.Join(task.Dir, stem),
	}

	if task.Option.Kind == models.KindVideo {
		// Remux stream-copies into mp4 when codecs allow; the tool only
		// re-encodes when it must.
		req.Remux = consts.ExtMP4
		return req
	}

	switch task.Option.Ext {
	case consts.ExtM4A, consts.ExtMP3:
		// Already player-friendly; keep the native container.
	default:
		req.ExtractAudio = true
		req.AudioFormat = consts.ExtMP3
	}
	return req
}

// checkFinalSize enforces the upload limit against the real artifact,
// catching estimates that undershot.
func (o *Orchestrator) checkFinalSize(path string) error {
	if o.MaxUploadBytes <= 0 {
		return nil
	}

	size := fileSize(path)
	if size <= o.MaxUploadBytes {
		return nil
	}

	if err := os.Remove(path); err != nil {
		logging.W("Could not remove oversized file %q: %v", path, err)
	}
	return models.NewDownloadError(models.ErrCatSizeExceeded,
		fmt.Errorf("downloaded file is %d bytes, limit %d", size, o.MaxUploadBytes))
}

// waitRetry sleeps the backoff delay for the given attempt: exponential
// from BaseDelay, capped at MaxDelay, plus 10-30% jitter so concurrent
// tasks do not retry in lockstep. Polls the cancel flag while waiting.
func (o *Orchestrator) waitRetry(ctx context.Context, attempt int, userID int64) error {
	delay := o.BaseDelay << (attempt - 1)
	if o.MaxDelay > 0 && delay > o.MaxDelay {
		delay = o.MaxDelay
	}
	delay += time.Duration(float64(delay) * (0.1 + 0.2*rand.Float64()))

	deadline := time.NewTimer(delay)
	defer deadline.Stop()

	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.NewDownloadError(models.ErrCatCancelled, ctx.Err())
		case <-poll.C:
			if o.Cancels.CancelRequested(userID) {
				return models.NewDownloadError(models.ErrCatCancelled,
					errors.New("cancelled during retry wait"))
			}
		case <-deadline.C:
			return nil
		}
	}
}

func cancelled(task *models.DownloadTask) error {
	return models.NewDownloadError(models.ErrCatCancelled,
		fmt.Errorf("download of %s cancelled by user %d", task.Source.Title, task.UserID))
}

func header(task *models.DownloadTask, stage models.Stage) string {
	if task.Option.Kind == models.KindAudio || task.Option.StreamType == models.StreamProgressive {
		return "Downloading " + task.Source.Title
	}
	return "Downloading " + task.Source.Title + " [" + stage.String() + "]"
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
