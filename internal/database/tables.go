package database

import (
	"database/sql"
	"fmt"
)

// Table and column names shared with the repo layer.
const (
	TableUsage   = "usage_counters"
	TableHistory = "download_history"

	QChatID    = "chat_id"
	QUserID    = "user_id"
	QCommand   = "command"
	QCount     = "count"
	QUpdatedAt = "updated_at"

	QURL        = "url"
	QSite       = "site"
	QTitle      = "title"
	QFormatID   = "format_id"
	QBytes      = "bytes"
	QOutcome    = "outcome"
	QFinishedAt = "finished_at"
)

func initUsageTable(tx *sql.Tx) error {
	const query = `
	CREATE TABLE IF NOT EXISTS usage_counters (
		chat_id INTEGER NOT NULL,
		command TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (chat_id, command)
	)`

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create usage table: %w", err)
	}
	return nil
}

func initHistoryTable(tx *sql.Tx) error {
	const query = `
	CREATE TABLE IF NOT EXISTS download_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		site TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		format_id TEXT NOT NULL DEFAULT '',
		bytes INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		finished_at TIMESTAMP NOT NULL
	)`

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}
