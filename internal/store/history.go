package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const defaultHistoryLimit = 100

// HistoryEntry is one remembered query
type HistoryEntry struct {
	Query      string
	SearchedAt time.Time
}

// History remembers recent queries, newest first. Repeating a query moves
// it back to the top. Only the newest limit entries are kept.
type History struct {
	db    *sql.DB
	now   func() time.Time
	limit int
}

// Add records query. Blank queries are ignored.
func (h *History) Add(ctx context.Context, query string) error {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO search_history (query, seq, searched)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM search_history), ?)
		ON CONFLICT (query) DO UPDATE SET seq = excluded.seq, searched = excluded.searched`,
		query, h.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM search_history WHERE seq NOT IN (
			SELECT seq FROM search_history ORDER BY seq DESC LIMIT ?
		)`, h.limit)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to n entries, newest first
func (h *History) Recent(ctx context.Context, n int) ([]HistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT query, searched FROM search_history ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var searched int64
		if err := rows.Scan(&e.Query, &searched); err != nil {
			return nil, err
		}
		e.SearchedAt = time.Unix(searched, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear forgets every entry
func (h *History) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
