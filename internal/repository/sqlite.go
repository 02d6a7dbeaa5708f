package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tmorling/wordsieve/internal/models"
)

// effectiveStatus is the SQL form of the absent-means-learning rule.
// Rows created before the status column existed carry NULL.
const effectiveStatus = "COALESCE(status, 'learning')"

// SQLiteRepository implements VocabularyRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves an entry by word.
func (r *SQLiteRepository) Get(ctx context.Context, word string) (*models.VocabularyEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT word, count, status, created_at, updated_at FROM vocabulary WHERE word = ?`, word,
	)
	return scanEntry(row)
}

// List retrieves entries with optional filtering and ordering.
func (r *SQLiteRepository) List(ctx context.Context, filter models.EntryFilter) ([]*models.VocabularyEntry, error) {
	query, args := buildListQuery(filter, false)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	defer rows.Close()

	var entries []*models.VocabularyEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries matching the filter.
func (r *SQLiteRepository) Count(ctx context.Context, filter models.EntryFilter) (int64, error) {
	query, args := buildListQuery(filter, true)
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count vocabulary: %w", err)
	}
	return count, nil
}

// LearningCount returns the number of entries counting against capacity.
func (r *SQLiteRepository) LearningCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vocabulary WHERE `+effectiveStatus+` = 'learning'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count learning words: %w", err)
	}
	return count, nil
}

// Statuses returns the effective status of each given word that exists.
func (r *SQLiteRepository) Statuses(ctx context.Context, words []string) (map[string]models.Status, error) {
	out := make(map[string]models.Status, len(words))
	if len(words) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(words)-1) + "?"
	args := make([]interface{}, len(words))
	for i, w := range words {
		args[i] = w
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT word, `+effectiveStatus+` FROM vocabulary WHERE word IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var word, status string
		if err := rows.Scan(&word, &status); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		out[word] = models.Status(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// UpsertIngest applies the ingestion state machine to a single word.
func (r *SQLiteRepository) UpsertIngest(ctx context.Context, word string, delta int64, capacity int64) (models.IngestOutcome, error) {
	summary, err := r.IngestBatch(ctx, []models.WordCandidate{{Word: word, Count: delta}}, capacity)
	if err != nil {
		return models.IngestOutcome{}, err
	}
	return models.IngestOutcome{
		Created:     summary.NewWordsAdded == 1,
		Updated:     summary.UpdatedWords == 1,
		CapacityHit: summary.CapacityHit,
	}, nil
}

// IngestBatch ingests a candidate list inside a single transaction.
// Capacity is evaluated against the running learning count at the moment
// of each word's insertion, so a batch straddling the limit partially
// succeeds. Running the whole batch in one transaction also serializes
// concurrent collectors through the database, closing the lost-update
// window a read-all/write-all scheme would have.
func (r *SQLiteRepository) IngestBatch(ctx context.Context, candidates []models.WordCandidate, capacity int64) (models.IngestSummary, error) {
	var summary models.IngestSummary
	if len(candidates) == 0 {
		return summary, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var learning int64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vocabulary WHERE `+effectiveStatus+` = 'learning'`,
	).Scan(&learning)
	if err != nil {
		return summary, fmt.Errorf("failed to count learning words: %w", err)
	}

	now := time.Now().UTC()
	for _, cand := range candidates {
		if cand.Word == "" || cand.Count < 1 {
			continue
		}

		var status sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM vocabulary WHERE word = ?`, cand.Word,
		).Scan(&status)

		switch {
		case err == nil:
			// Terminal statuses are never touched by ingestion.
			if status.Valid && status.String != string(models.StatusLearning) {
				summary.SkippedTerminal++
				continue
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE vocabulary SET count = count + ?, updated_at = ? WHERE word = ?`,
				cand.Count, now, cand.Word,
			)
			if err != nil {
				return summary, fmt.Errorf("failed to update word %q: %w", cand.Word, err)
			}
			summary.UpdatedWords++

		case err == sql.ErrNoRows:
			if learning >= capacity {
				summary.CapacityHit = true
				summary.CapacityRejected++
				continue
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO vocabulary (word, count, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
				cand.Word, cand.Count, string(models.StatusLearning), now, now,
			)
			if err != nil {
				return summary, fmt.Errorf("failed to insert word %q: %w", cand.Word, err)
			}
			learning++
			summary.NewWordsAdded++

		default:
			return summary, fmt.Errorf("failed to look up word %q: %w", cand.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("failed to commit ingest batch: %w", err)
	}
	return summary, nil
}

// SetStatus sets an entry's status and refreshes its updated_at.
func (r *SQLiteRepository) SetStatus(ctx context.Context, word string, status models.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vocabulary SET status = ?, updated_at = ? WHERE word = ?`,
		string(status), time.Now().UTC(), word,
	)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ResetAllCounts sets every entry's count to zero, statuses untouched.
func (r *SQLiteRepository) ResetAllCounts(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE vocabulary SET count = 0`); err != nil {
		return fmt.Errorf("failed to reset counts: %w", err)
	}
	return nil
}

// DeleteWord removes a single entry.
func (r *SQLiteRepository) DeleteWord(ctx context.Context, word string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vocabulary WHERE word = ?`, word)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByStatus removes all entries with the given effective status.
func (r *SQLiteRepository) DeleteByStatus(ctx context.Context, status models.Status) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM vocabulary WHERE `+effectiveStatus+` = ?`, string(status),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// GetRandom retrieves a random entry with the given effective status.
func (r *SQLiteRepository) GetRandom(ctx context.Context, status models.Status) (*models.VocabularyEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT word, count, status, created_at, updated_at FROM vocabulary
		 WHERE `+effectiveStatus+` = ? ORDER BY RANDOM() LIMIT 1`, string(status),
	)
	return scanEntry(row)
}

// AutoCollect reads the persisted auto-collect flag.
func (r *SQLiteRepository) AutoCollect(ctx context.Context, fallback bool) (bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'auto_collect'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("failed to read auto_collect: %w", err)
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("failed to parse auto_collect value %q: %w", value, err)
	}
	return enabled, nil
}

// SetAutoCollect persists the auto-collect flag.
func (r *SQLiteRepository) SetAutoCollect(ctx context.Context, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('auto_collect', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatBool(enabled),
	)
	if err != nil {
		return fmt.Errorf("failed to persist auto_collect: %w", err)
	}
	return nil
}

// buildListQuery constructs the SQL query for listing entries.
func buildListQuery(filter models.EntryFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, effectiveStatus+" = ?")
		args = append(args, string(filter.Status))
	}

	var query string
	if countOnly {
		query = "SELECT COUNT(*) FROM vocabulary"
	} else {
		query = "SELECT word, count, status, created_at, updated_at FROM vocabulary"
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !countOnly {
		switch filter.Sort {
		case models.SortByAlphabet:
			query += " ORDER BY word ASC"
		case models.SortByUpdated:
			query += " ORDER BY updated_at DESC, word ASC"
		default:
			query += " ORDER BY count DESC, word ASC"
		}

		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		}
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	return query, args
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry scans a vocabulary row, mapping NULL status to an absent one.
func scanEntry(row rowScanner) (*models.VocabularyEntry, error) {
	var entry models.VocabularyEntry
	var status sql.NullString

	err := row.Scan(&entry.Word, &entry.Count, &status, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	if status.Valid {
		s := models.Status(status.String)
		entry.Status = &s
	}
	return &entry, nil
}
