package repo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"telefetch/internal/database"
	"telefetch/internal/models"
	"telefetch/internal/repo"
)

func openStore(t *testing.T) *repo.UsageStore {
	t.Helper()

	dc, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	t.Cleanup(func() { dc.DB.Close() })

	return repo.GetUsageStore(dc.DB)
}

func TestIncrCommandUpserts(t *testing.T) {
	us := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := us.IncrCommand(ctx, 10, "yt"); err != nil {
			t.Fatalf("IncrCommand error: %v", err)
		}
	}
	if err := us.IncrCommand(ctx, 10, "cancel"); err != nil {
		t.Fatalf("IncrCommand error: %v", err)
	}

	counts, err := us.CommandCounts(ctx, 10)
	if err != nil {
		t.Fatalf("CommandCounts error: %v", err)
	}
	if counts["yt"] != 3 {
		t.Errorf("yt count = %d, want 3", counts["yt"])
	}
	if counts["cancel"] != 1 {
		t.Errorf("cancel count = %d, want 1", counts["cancel"])
	}
}

func TestCommandCountsScopedPerChat(t *testing.T) {
	us := openStore(t)
	ctx := context.Background()

	if err := us.IncrCommand(ctx, 10, "yt"); err != nil {
		t.Fatalf("IncrCommand error: %v", err)
	}

	counts, err := us.CommandCounts(ctx, 11)
	if err != nil {
		t.Fatalf("CommandCounts error: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("chat 11 should have no counters, got %v", counts)
	}
}

func TestDownloadHistoryRoundTrip(t *testing.T) {
	us := openStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i, title := range []string{"first", "second", "third"} {
		rec := models.DownloadRecord{
			URL:        "https://example.com/" + title,
			Site:       "example.com",
			Title:      title,
			FormatID:   "137+140",
			Bytes:      int64(i+1) * 1024,
			Outcome:    "delivered",
			UserID:     7,
			ChatID:     10,
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := us.RecordDownload(ctx, rec); err != nil {
			t.Fatalf("RecordDownload error: %v", err)
		}
	}

	recs, err := us.RecentDownloads(ctx, 10, 2)
	if err != nil {
		t.Fatalf("RecentDownloads error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Title != "third" {
		t.Errorf("newest record = %q, want %q", recs[0].Title, "third")
	}
	if recs[1].Title != "second" {
		t.Errorf("second record = %q, want %q", recs[1].Title, "second")
	}
}
