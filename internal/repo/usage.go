// Package repo persists lightweight per-chat usage counters and the
// download history.
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"telefetch/internal/database"
	"telefetch/internal/domain/consts"
	"telefetch/internal/models"
	"telefetch/internal/utils/logging"
)

// UsageStore holds a pointer to the sql.DB.
type UsageStore struct {
	DB *sql.DB
}

// GetUsageStore returns a usage store with injected database.
func GetUsageStore(db *sql.DB) *UsageStore {
	return &UsageStore{DB: db}
}

// IncrCommand bumps the per-chat counter for one command.
func (us *UsageStore) IncrCommand(ctx context.Context, chatID int64, command string) error {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Insert(database.TableUsage).
		Columns(database.QChatID, database.QCommand, database.QCount, database.QUpdatedAt).
		Values(chatID, command, 1, time.Now()).
		Suffix("ON CONFLICT(chat_id, command) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at").
		RunWith(us.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to bump %q counter for chat %d: %w", command, chatID, err)
	}
	return nil
}

// CommandCounts returns the per-command counters for one chat.
func (us *UsageStore) CommandCounts(ctx context.Context, chatID int64) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Select(database.QCommand, database.QCount).
		From(database.TableUsage).
		Where(squirrel.Eq{database.QChatID: chatID}).
		RunWith(us.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage counters for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			command string
			count   int64
		)
		if err := rows.Scan(&command, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		counts[command] = count
	}
	return counts, rows.Err()
}

// RecordDownload appends one terminal task outcome to the history.
func (us *UsageStore) RecordDownload(ctx context.Context, rec models.DownloadRecord) error {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Insert(database.TableHistory).
		Columns(database.QURL, database.QSite, database.QTitle, database.QFormatID,
			database.QBytes, database.QOutcome, database.QUserID, database.QChatID,
			database.QFinishedAt).
		Values(rec.URL, rec.Site, rec.Title, rec.FormatID,
			rec.Bytes, rec.Outcome, rec.UserID, rec.ChatID, rec.FinishedAt).
		RunWith(us.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to record download of %q: %w", rec.URL, err)
	}

	logging.D(2, "Recorded %s download of %q for user %d", rec.Outcome, rec.Title, rec.UserID)
	return nil
}

// RecentDownloads returns the latest history rows for one chat.
func (us *UsageStore) RecentDownloads(ctx context.Context, chatID int64, limit uint64) ([]models.DownloadRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.DatabaseTimeout)
	defer cancel()

	query := squirrel.
		Select(database.QURL, database.QSite, database.QTitle, database.QFormatID,
			database.QBytes, database.QOutcome, database.QUserID, database.QChatID,
			database.QFinishedAt).
		From(database.TableHistory).
		Where(squirrel.Eq{database.QChatID: chatID}).
		OrderBy(database.QFinishedAt + " DESC").
		Limit(limit).
		RunWith(us.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	var recs []models.DownloadRecord
	for rows.Next() {
		var r models.DownloadRecord
		if err := rows.Scan(&r.URL, &r.Site, &r.Title, &r.FormatID,
			&r.Bytes, &r.Outcome, &r.UserID, &r.ChatID, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
