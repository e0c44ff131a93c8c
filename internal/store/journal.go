package store

import (
	"fmt"
	"time"
)

// JournalEntry records one finished delivery: an entry Redmine accepted
// or refused. Transient failures are not journaled; they stay queued.
type JournalEntry struct {
	ID         int
	RequestID  string
	IssueID    int
	SpentOn    string
	Hours      float64
	ActivityID int
	Comments   string
	RedmineURL string
	Outcome    string
	Detail     string
	CreatedAt  time.Time
}

func (db *DB) RecordDelivery(e JournalEntry) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := db.Exec(
		`INSERT INTO journal (request_id, issue_id, spent_on, hours, activity_id, comments, redmine_url, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.IssueID, e.SpentOn, e.Hours, e.ActivityID, e.Comments, e.RedmineURL,
		e.Outcome, e.Detail,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting journal entry: %w", err)
	}
	return result.LastInsertId()
}

func (db *DB) TodayJournal() ([]JournalEntry, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	return db.queryJournal(
		`SELECT id, request_id, issue_id, spent_on, hours, activity_id, comments, redmine_url, outcome, detail, created_at
		 FROM journal
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC, id ASC`,
		startOfDay.UTC().Format(time.RFC3339),
		endOfDay.UTC().Format(time.RFC3339),
	)
}

func (db *DB) RecentJournal(limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return db.queryJournal(
		`SELECT id, request_id, issue_id, spent_on, hours, activity_id, comments, redmine_url, outcome, detail, created_at
		 FROM journal
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

func (db *DB) queryJournal(query string, args ...interface{}) ([]JournalEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var detail *string
		var createdStr string

		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.IssueID, &e.SpentOn, &e.Hours, &e.ActivityID,
			&e.Comments, &e.RedmineURL, &e.Outcome, &detail, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}

		if detail != nil {
			e.Detail = *detail
		}
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
