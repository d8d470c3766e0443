package downloads_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"telefetch/internal/downloads"
	"telefetch/internal/extractor"
	"telefetch/internal/models"
	"telefetch/internal/progress"
)

type nopEditor struct{}

func (nopEditor) EditStatus(context.Context, int64, int, string) error { return nil }

type fakeCancels struct{ flag bool }

func (f *fakeCancels) CancelRequested(int64) bool { return f.flag }

// fakeFetcher fails with failErr for the first failures calls, then
// writes the artifact and succeeds. Each call invokes the progress
// callback callbackTicks times.
type fakeFetcher struct {
	failures      int
	failErr       error
	calls         int
	callbackTicks int
	artifactSize  int64
}

func (f *fakeFetcher) Fetch(ctx context.Context, req extractor.FetchRequest, cb extractor.ProgressFunc) (string, error) {
	f.calls++

	for i := 0; i < f.callbackTicks; i++ {
		ev := models.ProgressEvent{
			Status:     "downloading",
			Filename:   filepath.Base(req.OutputStem) + ".mp4",
			Downloaded: int64(i+1) * 100,
			Total:      int64(f.callbackTicks) * 100,
		}
		if err := cb(ev); err != nil {
			return "", err
		}
	}

	if f.calls <= f.failures {
		return "", f.failErr
	}

	path := req.OutputStem + ".mp4"
	size := f.artifactSize
	if size == 0 {
		size = 64
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func newTask(t *testing.T) *models.DownloadTask {
	t.Helper()
	return &models.DownloadTask{
		UserID:          1,
		ChatID:          10,
		StatusMessageID: 100,
		Source:          models.MediaSource{URL: "https://example.com/v", Title: "clip"},
		Option: models.FormatOption{
			Kind:       models.KindVideo,
			StreamType: models.StreamProgressive,
			FormatID:   "22",
			Resolution: "720p",
			Ext:        "mp4",
			TotalSize:  1000,
		},
		Dir: t.TempDir(),
	}
}

func newOrchestrator(f downloads.Fetcher, c downloads.CancelRegistry) *downloads.Orchestrator {
	return &downloads.Orchestrator{
		Fetcher:    f,
		Cancels:    c,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func newTracker() *progress.Tracker {
	return progress.New(nopEditor{}, 10, 100, time.Second, 1<<20)
}

func transientErr() error {
	return errors.New("yt-dlp: urlopen error: connection reset by peer")
}

func TestRetryBudgetSucceedsWithinBudget(t *testing.T) {
	f := &fakeFetcher{failures: 3, failErr: transientErr(), callbackTicks: 2}
	o := newOrchestrator(f, &fakeCancels{})
	task := newTask(t)

	path, err := o.Run(context.Background(), task, newTracker())
	if err != nil {
		t.Fatalf("expected success within budget, got %v", err)
	}
	if f.calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", f.calls)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
}

func TestRetryBudgetExhaustionIsNetworkError(t *testing.T) {
	f := &fakeFetcher{failures: 10, failErr: transientErr(), callbackTicks: 1}
	o := newOrchestrator(f, &fakeCancels{})
	task := newTask(t)

	_, err := o.Run(context.Background(), task, newTracker())
	if !models.IsCategory(err, models.ErrCatNetwork) {
		t.Fatalf("expected network category, got %v", err)
	}
	if f.calls != 4 {
		t.Fatalf("expected exactly 4 attempts, got %d", f.calls)
	}
	assertNoPartials(t, task)
}

func TestPermanentErrorIsNeverRetried(t *testing.T) {
	f := &fakeFetcher{failures: 10, failErr: errors.New("ERROR: unsupported URL"), callbackTicks: 1}
	o := newOrchestrator(f, &fakeCancels{})
	task := newTask(t)

	_, err := o.Run(context.Background(), task, newTracker())
	if err == nil {
		t.Fatal("expected failure")
	}
	if f.calls != 1 {
		t.Fatalf("permanent errors must not retry, got %d attempts", f.calls)
	}
	if !models.IsCategory(err, models.ErrCatUnexpected) {
		t.Fatalf("expected unexpected category, got %v", err)
	}
	assertNoPartials(t, task)
}

// cancellingFetcher flips the shared cancel flag after flipAfter
// callback invocations, then keeps invoking the callback until it is
// told to stop.
type cancellingFetcher struct {
	cancels    *fakeCancels
	flipAfter  int
	extraCalls int
}

func (f *cancellingFetcher) Fetch(ctx context.Context, req extractor.FetchRequest, cb extractor.ProgressFunc) (string, error) {
	for i := 0; i < 1000; i++ {
		if i == f.flipAfter {
			f.cancels.flag = true
		}
		err := cb(models.ProgressEvent{Status: "downloading", Downloaded: int64(i), Total: 1000})
		if err != nil {
			return "", err
		}
		if i > f.flipAfter {
			f.extraCalls++
		}
	}
	return "", errors.New("callback never aborted")
}

func TestCancellationAbortsWithinBoundedCallbacks(t *testing.T) {
	cancels := &fakeCancels{}
	f := &cancellingFetcher{cancels: cancels, flipAfter: 5}
	o := newOrchestrator(f, cancels)
	task := newTask(t)

	// Seed a partial file that cleanup must remove.
	partial := filepath.Join(task.Dir, downloads.Stem(task)+".mp4.part")
	if err := os.WriteFile(partial, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := o.Run(context.Background(), task, newTracker())
	if !models.IsCategory(err, models.ErrCatCancelled) {
		t.Fatalf("expected cancelled category, got %v", err)
	}
	if f.extraCalls > 1 {
		t.Fatalf("cancellation took %d extra callbacks, want <= 1", f.extraCalls)
	}
	assertNoPartials(t, task)
}

func TestPreflightSizeCheckRejectsOversizedOption(t *testing.T) {
	f := &fakeFetcher{}
	o := newOrchestrator(f, &fakeCancels{})
	o.MaxUploadBytes = 500
	task := newTask(t) // option estimates 1000 bytes

	_, err := o.Run(context.Background(), task, newTracker())
	if !models.IsCategory(err, models.ErrCatSizeExceeded) {
		t.Fatalf("expected size-exceeded category, got %v", err)
	}
	if f.calls != 0 {
		t.Fatal("oversized option must be rejected before any attempt")
	}
}

func TestPostDownloadSizeCheckDeletesOversizedFile(t *testing.T) {
	f := &fakeFetcher{artifactSize: 4096, callbackTicks: 1}
	o := newOrchestrator(f, &fakeCancels{})
	o.MaxUploadBytes = 2048
	task := newTask(t)
	task.Option.TotalSize = 100 // estimate undershoots

	_, err := o.Run(context.Background(), task, newTracker())
	if !models.IsCategory(err, models.ErrCatSizeExceeded) {
		t.Fatalf("expected size-exceeded category, got %v", err)
	}
	assertNoPartials(t, task)
}

func TestSuccessLeavesOnlyTheArtifact(t *testing.T) {
	f := &fakeFetcher{callbackTicks: 3}
	o := newOrchestrator(f, &fakeCancels{})
	task := newTask(t)

	// Stray partial from a hypothetical earlier stream.
	stray := filepath.Join(task.Dir, downloads.Stem(task)+".f140.m4a.ytdl")
	if err := os.WriteFile(stray, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := o.Run(context.Background(), task, newTracker())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The orchestrator keeps partials for resume; terminal cleanup of
	// the delivered artifact belongs to the upload path. Purge with the
	// artifact spared and verify only it survives.
	downloads.PurgePartials(task.Dir, downloads.Stem(task), path)

	entries, err := os.ReadDir(task.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Join(task.Dir, entries[0].Name()) != path {
		t.Fatalf("expected only the artifact to remain, found %d entries", len(entries))
	}
}

func assertNoPartials(t *testing.T, task *models.DownloadTask) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(task.Dir, downloads.Stem(task)+"*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no files matching the task stem, found %v", matches)
	}
}
