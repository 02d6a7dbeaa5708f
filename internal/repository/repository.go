package repository

import (
	"context"

	"github.com/tmorling/wordsieve/internal/models"
)

// VocabularyRepository defines the interface for vocabulary persistence
// operations. Implementations must keep the learning-word capacity
// invariant: ingestion never pushes the number of learning entries
// (explicit or legacy absent status) past the given capacity.
type VocabularyRepository interface {
	// Get retrieves an entry by word. Returns sql.ErrNoRows when absent.
	Get(ctx context.Context, word string) (*models.VocabularyEntry, error)

	// List retrieves entries with optional filtering and ordering.
	List(ctx context.Context, filter models.EntryFilter) ([]*models.VocabularyEntry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter models.EntryFilter) (int64, error)

	// LearningCount returns the number of entries counting against the
	// learning capacity (status learning or absent).
	LearningCount(ctx context.Context) (int64, error)

	// Statuses returns the effective status of each given word that
	// exists in the store. Unknown words are omitted from the map.
	Statuses(ctx context.Context, words []string) (map[string]models.Status, error)

	// UpsertIngest applies the ingestion state machine to a single word:
	// mastered/ignored entries are left untouched, learning entries get a
	// count bump, unknown words are created as learning unless the store
	// is at capacity.
	UpsertIngest(ctx context.Context, word string, delta int64, capacity int64) (models.IngestOutcome, error)

	// IngestBatch applies UpsertIngest semantics to a whole candidate
	// list inside one transaction, tracking the running learning count so
	// a batch straddling the capacity limit partially succeeds.
	IngestBatch(ctx context.Context, candidates []models.WordCandidate, capacity int64) (models.IngestSummary, error)

	// SetStatus sets an entry's status and refreshes its updated_at.
	// Returns sql.ErrNoRows when the word is absent; nothing is created.
	SetStatus(ctx context.Context, word string, status models.Status) error

	// ResetAllCounts sets every entry's count to zero. Statuses and
	// timestamps are left untouched.
	ResetAllCounts(ctx context.Context) error

	// DeleteWord removes a single entry. Returns sql.ErrNoRows when absent.
	DeleteWord(ctx context.Context, word string) error

	// DeleteByStatus removes all entries with the given effective status
	// and reports how many were removed.
	DeleteByStatus(ctx context.Context, status models.Status) (int64, error)

	// GetRandom retrieves a random entry with the given effective status.
	GetRandom(ctx context.Context, status models.Status) (*models.VocabularyEntry, error)

	// AutoCollect reads the persisted auto-collect flag, falling back to
	// the given default when the flag was never written.
	AutoCollect(ctx context.Context, fallback bool) (bool, error)

	// SetAutoCollect persists the auto-collect flag.
	SetAutoCollect(ctx context.Context, enabled bool) error
}
